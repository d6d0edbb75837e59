// internal/storage/memory/export.go
package memory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/aerocade/flightcore/pkg/core"
	"github.com/klauspost/compress/gzip"
)

// SessionExport is the root JSON structure
type SessionExport struct {
	Aircraft     string      `json:"aircraft"`
	BuildVersion string      `json:"buildVersion"`
	StartTime    time.Time   `json:"startTime"`
	TickRate     float64     `json:"tickRate"`
	EndTick      uint64      `json:"endTick"`
	SpawnPose    core.Pose   `json:"spawnPose"`
	Track        string      `json:"track,omitempty"` // WKT LINESTRING Z, EPSG:4326
	Frames       []FrameJSON `json:"frames"`
	Events       [][]any     `json:"events"`
}

// FrameJSON is one telemetry frame.
// Position is [x, y, z] in the local frame.
type FrameJSON struct {
	Tick      uint64     `json:"tick"`
	Speed     float64    `json:"speed"`
	Altitude  float64    `json:"altitude"`
	Thrust    float64    `json:"thrust"`
	Override  int        `json:"override"`
	Destroyed int        `json:"destroyed"`
	Position  [3]float64 `json:"position"`
}

// exportJSON writes the session data to a JSON file, gzipped if configured
func (b *Backend) exportJSON() error {
	export := b.buildExport()

	name := strings.ReplaceAll(b.session.Aircraft, " ", "_")
	name = strings.ReplaceAll(name, ":", "_")
	if name == "" {
		name = "session"
	}
	timestamp := b.session.StartTime.Format("20060102_150405")

	var filename string
	if b.cfg.CompressOutput {
		filename = fmt.Sprintf("%s_%s.json.gz", name, timestamp)
	} else {
		filename = fmt.Sprintf("%s_%s.json", name, timestamp)
	}

	outputPath := filepath.Join(b.cfg.OutputDir, filename)

	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if b.cfg.CompressOutput {
		if err := writeGzipJSON(outputPath, export); err != nil {
			return err
		}
	} else {
		if err := writeJSON(outputPath, export); err != nil {
			return err
		}
	}

	b.lastExportPath = outputPath
	return nil
}

func (b *Backend) buildExport() SessionExport {
	export := SessionExport{
		Aircraft:     b.session.Aircraft,
		BuildVersion: b.session.BuildVersion,
		StartTime:    b.session.StartTime,
		TickRate:     b.session.TickRate,
		SpawnPose:    b.session.SpawnPose,
		Frames:       make([]FrameJSON, 0, len(b.telemetry)),
		Events:       make([][]any, 0, len(b.lifecycle)+len(b.throttle)),
	}

	points := make([]core.Vec3, 0, len(b.telemetry))
	for _, t := range b.telemetry {
		export.Frames = append(export.Frames, FrameJSON{
			Tick:      t.Tick,
			Speed:     t.Speed,
			Altitude:  t.Altitude,
			Thrust:    t.Thrust,
			Override:  boolToInt(t.Override),
			Destroyed: boolToInt(t.Destroyed),
			Position:  [3]float64{t.Position.X, t.Position.Y, t.Position.Z},
		})
		points = append(points, t.Position)
		if t.Tick > export.EndTick {
			export.EndTick = t.Tick
		}
	}

	if b.projector != nil && len(points) >= 2 {
		if wkt, err := b.projector.TrackWKT(points); err == nil {
			export.Track = wkt
		}
	}

	// Format: [tick, "killed"|"respawned", [x, y, z], thrust]
	for _, e := range b.lifecycle {
		export.Events = append(export.Events, []any{
			e.Tick,
			string(e.Kind),
			[]float64{e.Position.X, e.Position.Y, e.Position.Z},
			e.Thrust,
		})
	}

	// Format: [tick, "override"|"set"|"reverted", thrust, durationSeconds]
	// durationSeconds is -1 for an override without deadline
	for _, e := range b.throttle {
		d := -1.0
		if e.Duration >= 0 {
			d = e.Duration.Seconds()
		}
		export.Events = append(export.Events, []any{
			e.Tick,
			string(e.Kind),
			e.Thrust,
			d,
		})
	}

	sort.SliceStable(export.Events, func(i, j int) bool {
		return export.Events[i][0].(uint64) < export.Events[j][0].(uint64)
	})

	return export
}

func writeJSON(path string, data SessionExport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	return encoder.Encode(data)
}

func writeGzipJSON(path string, data SessionExport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	gzWriter := gzip.NewWriter(f)
	defer gzWriter.Close()

	encoder := json.NewEncoder(gzWriter)
	return encoder.Encode(data)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
