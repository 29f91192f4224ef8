package commands

import (
	"milpacs-backend/internal/audit"
	"milpacs-backend/internal/components/telemetry"
	"milpacs-backend/internal/normalize"
	"milpacs-backend/internal/store"
)

type Config struct {
	BaseUrl  string `json:"base_url"`
	Username string `json:"username"`
	Password string `json:"password"`

	// RankTable is the path to a rank table file, the bundled table is used when empty.
	RankTable         string               `json:"rank_table"`
	Course            audit.Course         `json:"course"`
	RequestsPerSecond float64              `json:"requests_per_second"`
	Timezone          string               `json:"timezone"`
	Database          store.DatabaseConfig `json:"database"`
	Telemetry         telemetry.Config     `json:"telemetry"`
}

func (c Config) rankTable() (normalize.RankTable, error) {
	if c.RankTable == "" {
		return normalize.DefaultRankTable(), nil
	}
	return normalize.LoadRankTable(c.RankTable)
}

func (c Config) course() audit.Course {
	if c.Course.Name == "" {
		return audit.DefaultCourse
	}
	return c.Course
}
