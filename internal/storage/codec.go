package storage

import (
	"encoding/json"
	"errors"

	"qatpx/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

func EncodeRun(r model.RunRecord) ([]byte, error) {
	return json.Marshal(r)
}

func DecodeRun(data []byte) (model.RunRecord, error) {
	var run model.RunRecord
	if err := json.Unmarshal(data, &run); err != nil {
		return model.RunRecord{}, err
	}
	if err := checkVersion(run.VersionedRecord); err != nil {
		return model.RunRecord{}, err
	}
	return run, nil
}

func EncodeCycles(cycles []model.CycleRecord) ([]byte, error) {
	return json.Marshal(cycles)
}

func DecodeCycles(data []byte) ([]model.CycleRecord, error) {
	var cycles []model.CycleRecord
	if err := json.Unmarshal(data, &cycles); err != nil {
		return nil, err
	}
	for _, c := range cycles {
		if err := checkVersion(c.VersionedRecord); err != nil {
			return nil, err
		}
	}
	return cycles, nil
}

func EncodeExperience(s model.ExperienceSnapshot) ([]byte, error) {
	return json.Marshal(s)
}

func DecodeExperience(data []byte) (model.ExperienceSnapshot, error) {
	var snapshot model.ExperienceSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return model.ExperienceSnapshot{}, err
	}
	if err := checkVersion(snapshot.VersionedRecord); err != nil {
		return model.ExperienceSnapshot{}, err
	}
	return snapshot, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}

// Stamp sets the current schema and codec versions on a record.
func Stamp() model.VersionedRecord {
	return model.VersionedRecord{
		SchemaVersion: CurrentSchemaVersion,
		CodecVersion:  CurrentCodecVersion,
	}
}
