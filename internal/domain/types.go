/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// This file defines the travel node data model. Nodes serialize to the same
// JSON shape in local storage, the remote store and export files.

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"travelcanvas/internal/geometry"
)

// NodeType is the kind of travel item a node represents.
type NodeType string

const (
	TypeFlight     NodeType = "flight"
	TypeHotel      NodeType = "hotel"
	TypeEvent      NodeType = "event"
	TypeTransport  NodeType = "transport"
	TypeRestaurant NodeType = "restaurant"
	TypeActivity   NodeType = "activity"
)

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// Node is a placed travel item on the canvas.
type Node struct {
	ID          string         `json:"id" validate:"required"`
	Title       string         `json:"title" validate:"trimmin=2,max=50"`
	Description string         `json:"description" validate:"max=500"`
	Type        NodeType       `json:"type" validate:"oneof=flight hotel event transport restaurant activity"`
	Confirmed   bool           `json:"confirmed"`
	Position    geometry.Point `json:"position"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	Date        *time.Time     `json:"date,omitempty"`
	Details     Details        `json:"details"`
	Tags        []string       `json:"tags" validate:"max=10,dive,max=20"`
	Priority    Priority       `json:"priority" validate:"oneof=low medium high critical"`
	Status      Status         `json:"status" validate:"oneof=pending confirmed cancelled completed"`
}

// Endpoint is one end of a flight.
type Endpoint struct {
	Airport  string    `json:"airport"`
	Time     time.Time `json:"time"`
	Terminal string    `json:"terminal,omitempty"`
}

// Details holds the optional type specific fields. Which of them are shown by
// default depends on the node type, see TypeInfo.DefaultDetails.
type Details struct {
	// flights
	Airline          string    `json:"airline,omitempty"`
	FlightNumber     string    `json:"flightNumber,omitempty"`
	Departure        *Endpoint `json:"departure,omitempty"`
	Arrival          *Endpoint `json:"arrival,omitempty"`
	BookingReference string    `json:"bookingReference,omitempty"`

	// hotels
	HotelName string     `json:"hotelName,omitempty"`
	CheckIn   *time.Time `json:"checkIn,omitempty"`
	CheckOut  *time.Time `json:"checkOut,omitempty"`
	RoomType  string     `json:"roomType,omitempty"`
	Address   string     `json:"address,omitempty"`

	// events, activities, restaurants
	Location string  `json:"location,omitempty"`
	Duration int     `json:"duration,omitempty"` // minutes
	Cost     float64 `json:"cost,omitempty"`
	Currency string  `json:"currency,omitempty"`
	Website  string  `json:"website,omitempty"`
	Phone    string  `json:"phone,omitempty"`

	// transport
	VehicleType     string `json:"vehicleType,omitempty"`
	PickupLocation  string `json:"pickupLocation,omitempty"`
	DropoffLocation string `json:"dropoffLocation,omitempty"`

	Notes       string   `json:"notes,omitempty"`
	Attachments []string `json:"attachments,omitempty"`
}

const (
	MinTitleLength       = 2
	MaxTitleLength       = 50
	MaxDescriptionLength = 500
	MaxTags              = 10
	MaxTagLength         = 20

	copySuffix = " (Copy)"
)

// DuplicateOffset is added to the source position of a duplicated node.
var DuplicateOffset = geometry.P(100, 50)

// NewID returns a fresh node identifier.
func NewID() string { return uuid.NewString() }

// NewNode builds a node with defaults: a "New <Label>" title when title is
// empty, medium priority, pending status and fresh timestamps.
func NewNode(t NodeType, pos geometry.Point, title string) Node {
	if title == "" {
		title = fmt.Sprintf("New %s", t.Label())
	}
	now := time.Now().UTC()
	return Node{
		ID:        NewID(),
		Title:     title,
		Type:      t,
		Position:  pos,
		CreatedAt: now,
		UpdatedAt: now,
		Tags:      []string{},
		Priority:  PriorityMedium,
		Status:    StatusPending,
	}
}

// Clone returns a deep copy of n.
func (n Node) Clone() Node {
	c := n
	if n.Tags != nil {
		c.Tags = append([]string(nil), n.Tags...)
	}
	if n.Date != nil {
		d := *n.Date
		c.Date = &d
	}
	c.Details = n.Details.clone()
	return c
}

func (d Details) clone() Details {
	c := d
	if d.Departure != nil {
		e := *d.Departure
		c.Departure = &e
	}
	if d.Arrival != nil {
		e := *d.Arrival
		c.Arrival = &e
	}
	if d.CheckIn != nil {
		t := *d.CheckIn
		c.CheckIn = &t
	}
	if d.CheckOut != nil {
		t := *d.CheckOut
		c.CheckOut = &t
	}
	if d.Attachments != nil {
		c.Attachments = append([]string(nil), d.Attachments...)
	}
	return c
}

// Duplicate copies n under a new id, shifted by DuplicateOffset and titled
// "<title> (Copy)". The title is shortened so the copy still validates.
func Duplicate(n Node) Node {
	c := n.Clone()
	now := time.Now().UTC()
	c.ID = NewID()
	c.Position = n.Position.Add(DuplicateOffset)
	c.CreatedAt, c.UpdatedAt = now, now

	base := []rune(n.Title)
	if room := MaxTitleLength - len([]rune(copySuffix)); len(base) > room {
		base = base[:room]
	}
	c.Title = string(base) + copySuffix
	return c
}
