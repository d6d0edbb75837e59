package model

import (
	"database/sql"
	"time"

	"github.com/aerocade/flightcore/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&Session{},
	&TelemetryFrame{},
	&LifecycleEvent{},
	&ThrottleEvent{},
}

// Session is one recorded flight.
type Session struct {
	ID           uint                          `json:"id" gorm:"primarykey;autoIncrement;"`
	Aircraft     string                        `json:"aircraft" gorm:"size:128"`
	StartTime    time.Time                     `json:"startTime" gorm:"index:idx_session_start"`
	EndTime      sql.NullTime                  `json:"endTime"`
	TickRate     float64                       `json:"tickRate" gorm:"default:50"`
	SpawnPose    datatypes.JSONType[core.Pose] `json:"spawnPose"`
	BuildVersion string                        `json:"buildVersion" gorm:"size:64"`
	FrameCount   uint64                        `json:"frameCount" gorm:"default:0"`
	Track        string                        `json:"track" gorm:"type:text"` // WKT LINESTRING Z in EPSG:4326, set when the session ends
}

func (*Session) TableName() string {
	return "sessions"
}

// TelemetryFrame is one fixed tick of published telemetry.
type TelemetryFrame struct {
	ID        uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	SessionID uint      `json:"sessionId" gorm:"index:idx_frame_session_id"`
	Session   Session   `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:SessionID;"`
	Tick      uint64    `json:"tick" gorm:"index:idx_frame_tick"`
	Time      time.Time `json:"time"`

	Speed     float64    `json:"speed"`    // m/s
	Altitude  float64    `json:"altitude"` // m, local Y
	Thrust    float64    `json:"thrust"`   // 0..1
	Override  bool       `json:"override" gorm:"default:false"`
	Destroyed bool       `json:"destroyed" gorm:"default:false"`
	X         float64    `json:"x"`        // local east
	Y         float64    `json:"y"`        // local up
	Z         float64    `json:"z"`        // local north
	Location  geom.Point `json:"location"` // EPSG:4326 with altitude, empty without a projector
}

func (*TelemetryFrame) TableName() string {
	return "telemetry_frames"
}

// LifecycleEvent records a kill or a respawn.
type LifecycleEvent struct {
	ID        uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	SessionID uint      `json:"sessionId" gorm:"index:idx_lifecycle_session_id"`
	Session   Session   `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:SessionID;"`
	Tick      uint64    `json:"tick"`
	Time      time.Time `json:"time"`
	Kind      string    `json:"kind" gorm:"size:16"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	Z         float64   `json:"z"`
	Thrust    float64   `json:"thrust"`
}

func (*LifecycleEvent) TableName() string {
	return "lifecycle_events"
}

// ThrottleEvent records a scripted thrust change or the end of an override.
type ThrottleEvent struct {
	ID         uint          `json:"id" gorm:"primarykey;autoIncrement;"`
	SessionID  uint          `json:"sessionId" gorm:"index:idx_throttle_session_id"`
	Session    Session       `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:SessionID;"`
	Tick       uint64        `json:"tick"`
	Time       time.Time     `json:"time"`
	Kind       string        `json:"kind" gorm:"size:16"`
	Thrust     float64       `json:"thrust"`
	DurationMs sql.NullInt64 `json:"durationMs"` // NULL for an override without deadline
}

func (*ThrottleEvent) TableName() string {
	return "throttle_events"
}
