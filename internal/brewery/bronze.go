// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package brewery

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// BronzeRecord is one brewery as delivered by the ingestion API.
type BronzeRecord struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	BreweryType   string     `json:"brewery_type"`
	Address1      string     `json:"address_1"`
	Street        string     `json:"street"`
	City          string     `json:"city"`
	State         string     `json:"state"`
	StateProvince string     `json:"state_province"`
	PostalCode    string     `json:"postal_code"`
	Country       string     `json:"country"`
	Longitude     Coordinate `json:"longitude"`
	Latitude      Coordinate `json:"latitude"`
	Phone         string     `json:"phone"`
	WebsiteURL    string     `json:"website_url"`
}

// Coordinate accepts a JSON number, a numeric string or null.
type Coordinate struct {
	Value *float64
}

func (c *Coordinate) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		c.Value = nil
		return nil
	}
	s = strings.TrimSpace(strings.Trim(s, `"`))
	if s == "" {
		c.Value = nil
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid coordinate %s: %w", string(data), err)
	}
	c.Value = &f
	return nil
}

// ParseBronze decodes an object's content. The content may be a single JSON
// document, an array of documents or a stream of either (NDJSON).
func ParseBronze(data []byte) ([]BronzeRecord, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	var records []BronzeRecord
	for {
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				return records, nil
			}
			return nil, fmt.Errorf("invalid bronze document: %w", err)
		}

		trimmed := bytes.TrimSpace(raw)
		if len(trimmed) > 0 && trimmed[0] == '[' {
			var batch []BronzeRecord
			if err := json.Unmarshal(trimmed, &batch); err != nil {
				return nil, fmt.Errorf("invalid bronze array: %w", err)
			}
			records = append(records, batch...)
			continue
		}

		var rec BronzeRecord
		if err := json.Unmarshal(trimmed, &rec); err != nil {
			return nil, fmt.Errorf("invalid bronze record: %w", err)
		}
		records = append(records, rec)
	}
}
