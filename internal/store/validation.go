package store

import (
	"maps"
	"strings"

	"github.com/nvandessel/neurodash/internal/models"
	"github.com/nvandessel/neurodash/internal/sanitize"
)

func required(field, v string) error {
	if strings.TrimSpace(v) == "" {
		return invalid("%s is required", field)
	}
	return nil
}

func oneOf(field, v string, allowed []string) error {
	if !models.Contains(allowed, v) {
		return invalid("%s must be one of %s, got %q", field, strings.Join(allowed, ", "), v)
	}
	return nil
}

func nonEmptyIDs(field string, ids []string) error {
	if len(ids) == 0 {
		return invalid("%s must contain at least one id", field)
	}
	for _, id := range ids {
		if id == "" {
			return invalid("%s contains an empty id", field)
		}
	}
	return nil
}

// normalize validates in and fills defaults.
func (in SessionCreate) normalize() (SessionCreate, error) {
	for _, f := range []struct{ name, v string }{
		{"subject", in.Subject},
		{"date", in.Date},
		{"task", in.Task},
		{"duration", in.Duration},
	} {
		if err := required(f.name, f.v); err != nil {
			return in, err
		}
	}
	if in.Channels <= 0 {
		return in, invalid("channels must be positive, got %d", in.Channels)
	}
	if in.Status == "" {
		in.Status = models.SessionPending
	}
	if err := oneOf("status", in.Status, models.SessionStatuses); err != nil {
		return in, err
	}
	if in.Metadata == nil {
		in.Metadata = map[string]string{}
	} else {
		in.Metadata = maps.Clone(in.Metadata)
	}
	return in, nil
}

func (in SessionUpdate) validate() error {
	for _, f := range []struct {
		name string
		v    *string
	}{
		{"subject", in.Subject},
		{"date", in.Date},
		{"task", in.Task},
		{"duration", in.Duration},
	} {
		if f.v != nil {
			if err := required(f.name, *f.v); err != nil {
				return err
			}
		}
	}
	if in.Channels != nil && *in.Channels <= 0 {
		return invalid("channels must be positive, got %d", *in.Channels)
	}
	if in.Status != nil {
		if err := oneOf("status", *in.Status, models.SessionStatuses); err != nil {
			return err
		}
	}
	return nil
}

// apply returns rec with the set fields of in copied over.
func (in SessionUpdate) apply(rec models.SessionRecord) models.SessionRecord {
	if in.Subject != nil {
		rec.Subject = *in.Subject
	}
	if in.Date != nil {
		rec.Date = *in.Date
	}
	if in.Task != nil {
		rec.Task = *in.Task
	}
	if in.Channels != nil {
		rec.Channels = *in.Channels
	}
	if in.Duration != nil {
		rec.Duration = *in.Duration
	}
	if in.Status != nil {
		rec.Status = *in.Status
	}
	if in.Metadata != nil {
		rec.Metadata = maps.Clone(*in.Metadata)
		if rec.Metadata == nil {
			rec.Metadata = map[string]string{}
		}
	}
	return rec
}

func (req ExtractRequest) normalize() (ExtractRequest, error) {
	if err := nonEmptyIDs("sessionIds", req.SessionIDs); err != nil {
		return req, err
	}
	if req.FeatureSet == "" {
		req.FeatureSet = DefaultFeatureSet
	}
	if err := oneOf("featureSet", req.FeatureSet, models.FeatureSets); err != nil {
		return req, err
	}
	if req.WindowMs == 0 {
		req.WindowMs = DefaultWindowMs
	}
	if req.WindowMs < 0 {
		return req, invalid("windowMs must be positive, got %d", req.WindowMs)
	}
	return req, nil
}

func (req TrainingRequest) normalize() (TrainingRequest, error) {
	req.Name = sanitize.Label(req.Name)
	if err := required("name", req.Name); err != nil {
		return req, err
	}
	if err := oneOf("modelType", req.ModelType, models.JobModelTypes); err != nil {
		return req, err
	}
	if err := nonEmptyIDs("sessionIds", req.SessionIDs); err != nil {
		return req, err
	}
	if req.Epochs <= 0 {
		return req, invalid("epochs must be positive, got %d", req.Epochs)
	}
	if req.FeatureSet == "" {
		req.FeatureSet = DefaultFeatureSet
	}
	if err := oneOf("featureSet", req.FeatureSet, models.FeatureSets); err != nil {
		return req, err
	}
	req.SessionIDs = append([]string(nil), req.SessionIDs...)
	return req, nil
}

func validateTrainingStatus(status string) error {
	return oneOf("status", status, models.TrainingStatuses)
}

func (in ExperimentCreate) normalize() (ExperimentCreate, error) {
	in.Name = sanitize.Label(in.Name)
	in.Owner = sanitize.Label(in.Owner)
	in.Notes = sanitize.Notes(in.Notes)
	if err := required("name", in.Name); err != nil {
		return in, err
	}
	if err := required("owner", in.Owner); err != nil {
		return in, err
	}
	if err := nonEmptyIDs("sessions", in.Sessions); err != nil {
		return in, err
	}
	in.Sessions = append([]string(nil), in.Sessions...)
	if in.Metrics == nil {
		in.Metrics = map[string]float64{}
	} else {
		in.Metrics = maps.Clone(in.Metrics)
	}
	return in, nil
}

func (in RegistryCreate) normalize() (RegistryCreate, error) {
	in.Device = sanitize.Label(in.Device)
	in.Notes = sanitize.Notes(in.Notes)
	for _, f := range []struct{ name, v string }{
		{"sessionId", in.SessionID},
		{"subject", in.Subject},
		{"device", in.Device},
	} {
		if err := required(f.name, f.v); err != nil {
			return in, err
		}
	}
	return in, nil
}
