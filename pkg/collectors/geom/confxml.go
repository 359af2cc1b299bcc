// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and sanview contributors
//
// SPDX-License-Identifier: Apache-2.0

package geom

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
)

type xmlMesh struct {
	Classes []xmlClass `xml:"class"`
}

type xmlClass struct {
	Name  string    `xml:"name"`
	Geoms []xmlGeom `xml:"geom"`
}

type xmlGeom struct {
	ID        string        `xml:"id,attr"`
	Name      string        `xml:"name"`
	Rank      int           `xml:"rank"`
	Providers []xmlProvider `xml:"provider"`
	Consumers []xmlConsumer `xml:"consumer"`
}

type xmlProvider struct {
	ID     string    `xml:"id,attr"`
	Name   string    `xml:"name"`
	Config xmlConfig `xml:"config"`
}

type xmlConsumer struct {
	ID string `xml:"id,attr"`
}

type xmlConfig struct {
	Ident string `xml:"ident"`
	LunID string `xml:"lunid"`
}

// parseConfXML builds the id index from the kern.geom.confxml document.
// Providers take the rank of their geom; consumers are indexed so that their
// statistics are recognised and skipped instead of forcing a refresh.
func parseConfXML(data []byte) (map[string]Ident, error) {
	var mesh xmlMesh
	if err := xml.Unmarshal(data, &mesh); err != nil {
		return nil, fmt.Errorf("error parsing geom confxml: %w", err)
	}

	idents := make(map[string]Ident)
	for _, class := range mesh.Classes {
		for _, g := range class.Geoms {
			for _, p := range g.Providers {
				id, ok := normalizeID(p.ID)
				if !ok {
					continue
				}
				ident := strings.TrimSpace(p.Config.Ident)
				if ident == "" {
					ident = strings.TrimSpace(p.Config.LunID)
				}
				idents[id] = Ident{
					Name:  strings.TrimSpace(p.Name),
					Rank:  g.Rank,
					Ident: ident,
				}
			}
			for _, cons := range g.Consumers {
				if id, ok := normalizeID(cons.ID); ok {
					idents[id] = Ident{Name: strings.TrimSpace(g.Name), Rank: g.Rank, Consumer: true}
				}
			}
		}
	}
	return idents, nil
}

func normalizeID(raw string) (string, bool) {
	v, err := strconv.ParseUint(strings.TrimPrefix(strings.TrimSpace(raw), "0x"), 16, 64)
	if err != nil || v == 0 {
		return "", false
	}
	return formatID(v), true
}

// indexTree is a Tree backed by an in-memory id index and a loader that can
// rebuild it.
type indexTree struct {
	load  func() (map[string]Ident, error)
	index map[string]Ident
}

func newIndexTree(load func() (map[string]Ident, error)) (*indexTree, error) {
	t := &indexTree{load: load}
	if err := t.Refresh(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *indexTree) Lookup(id string) (Ident, bool) {
	ident, ok := t.index[id]
	return ident, ok
}

func (t *indexTree) Refresh() error {
	index, err := t.load()
	if err != nil {
		return err
	}
	t.index = index
	return nil
}
