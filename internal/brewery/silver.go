// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package brewery

import (
	"sort"
	"strings"
	"time"
)

// SilverBrewery is a validated brewery row.
type SilverBrewery struct {
	ID          string   `parquet:"name=id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Name        string   `parquet:"name=name, type=BYTE_ARRAY, convertedtype=UTF8"`
	BreweryType string   `parquet:"name=brewery_type, type=BYTE_ARRAY, convertedtype=UTF8"`
	Street      string   `parquet:"name=street, type=BYTE_ARRAY, convertedtype=UTF8"`
	City        string   `parquet:"name=city, type=BYTE_ARRAY, convertedtype=UTF8"`
	State       string   `parquet:"name=state, type=BYTE_ARRAY, convertedtype=UTF8"`
	PostalCode  string   `parquet:"name=postal_code, type=BYTE_ARRAY, convertedtype=UTF8"`
	Country     string   `parquet:"name=country, type=BYTE_ARRAY, convertedtype=UTF8"`
	Latitude    *float64 `parquet:"name=latitude, type=DOUBLE, repetitiontype=OPTIONAL"`
	Longitude   *float64 `parquet:"name=longitude, type=DOUBLE, repetitiontype=OPTIONAL"`
	Phone       string   `parquet:"name=phone, type=BYTE_ARRAY, convertedtype=UTF8"`
	WebsiteURL  string   `parquet:"name=website_url, type=BYTE_ARRAY, convertedtype=UTF8"`
	// TimeUpdateSilver is milliseconds since the epoch, second precision.
	TimeUpdateSilver int64 `parquet:"name=time_update_silver, type=INT64, convertedtype=TIMESTAMP_MILLIS"`
}

// CleanBronze turns raw records into silver rows: records without an id or
// name are dropped, strings are trimmed, the brewery type is lower-cased and
// the state falls back to state_province. Duplicate ids keep the last
// occurrence. The result is sorted by id and carries no timestamp.
func CleanBronze(records []BronzeRecord) []SilverBrewery {
	byID := make(map[string]SilverBrewery, len(records))
	for _, r := range records {
		id := strings.TrimSpace(r.ID)
		name := strings.TrimSpace(r.Name)
		if id == "" || name == "" {
			continue
		}

		state := strings.TrimSpace(r.State)
		if state == "" {
			state = strings.TrimSpace(r.StateProvince)
		}
		street := strings.TrimSpace(r.Street)
		if street == "" {
			street = strings.TrimSpace(r.Address1)
		}

		byID[id] = SilverBrewery{
			ID:          id,
			Name:        name,
			BreweryType: strings.ToLower(strings.TrimSpace(r.BreweryType)),
			Street:      street,
			City:        strings.TrimSpace(r.City),
			State:       state,
			PostalCode:  strings.TrimSpace(r.PostalCode),
			Country:     strings.TrimSpace(r.Country),
			Latitude:    r.Latitude.Value,
			Longitude:   r.Longitude.Value,
			Phone:       strings.TrimSpace(r.Phone),
			WebsiteURL:  strings.TrimSpace(r.WebsiteURL),
		}
	}

	rows := make([]SilverBrewery, 0, len(byID))
	for _, row := range byID {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	return rows
}

// Timestamp renders t as the stored timestamp column value: truncated to the
// second, in epoch milliseconds.
func Timestamp(t time.Time) int64 {
	return t.Truncate(time.Second).UnixMilli()
}

// TimeOf is the inverse of Timestamp.
func TimeOf(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
