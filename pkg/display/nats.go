// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and sanview contributors
//
// SPDX-License-Identifier: Apache-2.0

package display

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/cobaltcore-dev/sanview/pkg/state"
)

// Publisher is satisfied by *nats.Conn.
type Publisher interface {
	Publish(subject string, data []byte) error
}

var _ Publisher = (*nats.Conn)(nil)

// Message is the payload published for every exported tick.
type Message struct {
	Node       string         `json:"node"`
	InstanceID string         `json:"instance_id"`
	Timestamp  time.Time      `json:"timestamp"`
	Snapshot   state.Snapshot `json:"snapshot"`
}

type NATSConfig struct {
	Subject    string
	NodeName   string
	InstanceID string
	// Every limits the publish rate; zero publishes every new tick.
	Every time.Duration
}

type NATSSink struct {
	conn     Publisher
	cfg      NATSConfig
	lastTick uint64
	last     time.Time
	now      func() time.Time
}

// NewNATSSink fills in a random instance id when none is configured.
func NewNATSSink(conn Publisher, cfg NATSConfig) *NATSSink {
	if cfg.InstanceID == "" {
		cfg.InstanceID = uuid.NewString()
	}
	return &NATSSink{conn: conn, cfg: cfg, now: time.Now}
}

func (s *NATSSink) InstanceID() string {
	return s.cfg.InstanceID
}

func (s *NATSSink) Render(snap state.Snapshot) error {
	if snap.Ticks == 0 || snap.Ticks == s.lastTick {
		return nil
	}
	now := s.now()
	if s.cfg.Every > 0 && !s.last.IsZero() && now.Sub(s.last) < s.cfg.Every {
		return nil
	}
	s.lastTick = snap.Ticks
	s.last = now
	return PublishToNATS(s.conn, Message{
		Node:       s.cfg.NodeName,
		InstanceID: s.cfg.InstanceID,
		Timestamp:  now,
		Snapshot:   snap,
	}, s.cfg.Subject)
}

func PublishToNATS(nc Publisher, msg Message, subject string) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	return nc.Publish(subject, data)
}
