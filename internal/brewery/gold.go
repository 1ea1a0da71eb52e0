// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package brewery

import (
	"strings"
	"unicode"
)

// BreweryTypeClosed marks breweries that no longer operate.
const BreweryTypeClosed = "closed"

// GoldBrewery is the business-modelled row.
type GoldBrewery struct {
	ID             string   `parquet:"name=id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Name           string   `parquet:"name=name, type=BYTE_ARRAY, convertedtype=UTF8"`
	BreweryType    string   `parquet:"name=brewery_type, type=BYTE_ARRAY, convertedtype=UTF8"`
	City           string   `parquet:"name=city, type=BYTE_ARRAY, convertedtype=UTF8"`
	State          string   `parquet:"name=state, type=BYTE_ARRAY, convertedtype=UTF8"`
	Country        string   `parquet:"name=country, type=BYTE_ARRAY, convertedtype=UTF8"`
	LocationKey    string   `parquet:"name=location_key, type=BYTE_ARRAY, convertedtype=UTF8"`
	Latitude       *float64 `parquet:"name=latitude, type=DOUBLE, repetitiontype=OPTIONAL"`
	Longitude      *float64 `parquet:"name=longitude, type=DOUBLE, repetitiontype=OPTIONAL"`
	HasCoordinates bool     `parquet:"name=has_coordinates, type=BOOLEAN"`
	HasWebsite     bool     `parquet:"name=has_website, type=BOOLEAN"`
	IsClosed       bool     `parquet:"name=is_closed, type=BOOLEAN"`
	TimeUpdateGold int64    `parquet:"name=time_update_gold, type=INT64, convertedtype=TIMESTAMP_MILLIS"`
}

// GoldModel maps every silver row to exactly one gold row, in order. The
// timestamp column is left for the caller.
func GoldModel(rows []SilverBrewery) []GoldBrewery {
	out := make([]GoldBrewery, 0, len(rows))
	for _, r := range rows {
		out = append(out, GoldBrewery{
			ID:             r.ID,
			Name:           r.Name,
			BreweryType:    r.BreweryType,
			City:           r.City,
			State:          r.State,
			Country:        r.Country,
			LocationKey:    LocationKey(r.Country, r.State, r.City),
			Latitude:       r.Latitude,
			Longitude:      r.Longitude,
			HasCoordinates: r.Latitude != nil && r.Longitude != nil,
			HasWebsite:     r.WebsiteURL != "",
			IsClosed:       r.BreweryType == BreweryTypeClosed,
		})
	}
	return out
}

// LocationKey joins the kebab-cased parts with "/". Empty parts become
// "unknown".
func LocationKey(country, state, city string) string {
	parts := []string{kebab(country), kebab(state), kebab(city)}
	for i, p := range parts {
		if p == "" {
			parts[i] = "unknown"
		}
	}
	return strings.Join(parts, "/")
}

func kebab(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
			continue
		}
		dash = true
	}
	return b.String()
}
