package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// RunRecord summarizes one batch of energy cycles driven through a system
// with a fixed parameter set.
type RunRecord struct {
	VersionedRecord
	ID                 string  `json:"id"`
	CreatedAtUTC       string  `json:"created_at_utc"`
	Seed               int64   `json:"seed"`
	ChainLength        int     `json:"chain_length"`
	BaseEfficiency     float64 `json:"base_efficiency"`
	CoherenceFactor    float64 `json:"coherence_factor"`
	CondensateCapacity float64 `json:"condensate_capacity"`
	BatteryCapacity    float64 `json:"battery_capacity"`
	BatteryEfficiency  float64 `json:"battery_efficiency"`
	AdaptiveDischarge  bool    `json:"adaptive_discharge"`
	Threshold          float64 `json:"threshold"`
	PriorityLevel      int     `json:"priority_level"`
	Cycles             int     `json:"cycles"`
	Activations        int     `json:"activations"`
}

// CycleRecord captures the energy accounting of a single cycle.
type CycleRecord struct {
	VersionedRecord
	RunID            string  `json:"run_id"`
	Sequence         int     `json:"sequence"`
	InputEnergy      float64 `json:"input_energy"`
	DeliveredEnergy  float64 `json:"delivered_energy"`
	StoredEnergy     float64 `json:"stored_energy"`
	OverflowEnergy   float64 `json:"overflow_energy"`
	AvailableEnergy  float64 `json:"available_energy"`
	Activated        bool    `json:"activated"`
	BatteryEnergy    float64 `json:"battery_energy"`
	CondensateEnergy float64 `json:"condensate_energy"`
}

// ExperienceLevel is one learned entry of the activation unit's memory.
type ExperienceLevel struct {
	Energy      float64 `json:"energy"`
	Probability float64 `json:"probability"`
	Coherence   float64 `json:"coherence"`
}

// ExperienceSnapshot is the activation unit's learning memory at the end of a
// run.
type ExperienceSnapshot struct {
	VersionedRecord
	RunID  string            `json:"run_id"`
	Levels []ExperienceLevel `json:"levels"`
}
