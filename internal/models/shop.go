package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// TariffPlan is the service tier assigned to a shop.
type TariffPlan string

const (
	TariffBasic    TariffPlan = "basic"
	TariffStandard TariffPlan = "standard"
	TariffPremium  TariffPlan = "premium"
)

// TariffPlans lists every plan the backend accepts.
var TariffPlans = []TariffPlan{TariffBasic, TariffStandard, TariffPremium}

// Location is a geographic coordinate pair.
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// UnmarshalJSON accepts {"lat":..,"lon":..} as well as the legacy "lat,lon"
// text some shops were created with.
func (l *Location) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		lat, lon, ok := strings.Cut(s, ",")
		if !ok {
			return fmt.Errorf("invalid location %q", s)
		}
		latV, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
		if err != nil {
			return fmt.Errorf("invalid latitude: %w", err)
		}
		lonV, err := strconv.ParseFloat(strings.TrimSpace(lon), 64)
		if err != nil {
			return fmt.Errorf("invalid longitude: %w", err)
		}
		*l = Location{Lat: latV, Lon: lonV}
		return nil
	}

	type plain Location
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*l = Location(p)
	return nil
}

// Shop is the backend shop record as seen by the dashboard.
type Shop struct {
	ID          string     `json:"id"`
	Name        string     `json:"shopname"`
	Address     string     `json:"address"`
	Description string     `json:"description"`
	Logo        string     `json:"logotype"`
	Location    *Location  `json:"location,omitempty"`
	Phone       string     `json:"phone"`
	TariffPlan  TariffPlan `json:"TariffPlan"`

	// Computed by the backend, never sent back.
	Commission Metric `json:"commission"`
	Sales      Metric `json:"sales"`
	Balance    Metric `json:"balance"`
	Withdraw   Metric `json:"withdraw"`
}

// UnmarshalJSON maps the backend "_id" key onto ID.
func (s *Shop) UnmarshalJSON(data []byte) error {
	type plain Shop
	var doc struct {
		plain
		MongoID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	*s = Shop(doc.plain)
	if s.ID == "" {
		s.ID = doc.MongoID
	}
	return nil
}

// ShopPayload is the create/update body for a shop.
type ShopPayload struct {
	Name        string     `json:"shopname"`
	Address     string     `json:"address"`
	Description string     `json:"description"`
	Logo        string     `json:"logotype"`
	Location    *Location  `json:"location,omitempty"`
	Phone       string     `json:"phone"`
	TariffPlan  TariffPlan `json:"TariffPlan"`
}
