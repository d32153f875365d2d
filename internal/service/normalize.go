package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/saturnino-fabrica-de-software/accesssync/internal/domain"
)

var workerValidate = validator.New()

// dateLayouts are tried in order; the roster sends plain dates but older rows carry timestamps
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// workerInput is a roster entry after trimming, before typing
type workerInput struct {
	InternalID string `validate:"required,max=255"`
	NationalID string `validate:"omitempty,max=64"`
	Name       string `validate:"max=255"`
	Phone      string `validate:"max=64"`
	Email      string `validate:"omitempty,email,max=255"`
	Gender     string `validate:"max=32"`
	UnitNumber string `validate:"max=64"`
	FacePhoto  string `validate:"omitempty,url|datauri"`
	Status     string `validate:"oneof=active blocked"`
}

// validateEvent checks the envelope; entries are checked by normalize
func validateEvent(event domain.Event) error {
	if strings.TrimSpace(event.ID) == "" {
		return domain.ErrInvalidEvent.WithError(errors.New("missing event id"))
	}
	if event.Malformed != nil {
		return domain.ErrInvalidEvent.WithError(fmt.Errorf("malformed payload: %w", event.Malformed))
	}
	if !event.Type.IsKnown() {
		return domain.ErrInvalidEvent.WithError(fmt.Errorf("unrecognized type %q", event.Type))
	}
	if len(event.Workers) == 0 {
		return domain.ErrInvalidEvent.WithError(errors.New("no worker entries"))
	}
	return nil
}

// normalizeAll maps every entry or rejects the whole event
func normalizeAll(raws []domain.RawWorker) ([]*domain.WorkerRecord, error) {
	out := make([]*domain.WorkerRecord, 0, len(raws))
	for i, raw := range raws {
		rec, err := normalize(raw)
		if err != nil {
			return nil, domain.ErrInvalidEvent.WithError(fmt.Errorf("worker %d: %w", i, err))
		}
		out = append(out, rec)
	}
	return out, nil
}

// normalize turns a roster entry into a candidate record.
// id falls back to the national id; an empty status means active.
func normalize(raw domain.RawWorker) (*domain.WorkerRecord, error) {
	in := workerInput{
		InternalID: strings.TrimSpace(raw.ID.String()),
		NationalID: strings.TrimSpace(raw.NationalIDNumber),
		Name:       strings.TrimSpace(raw.FullName),
		Phone:      strings.TrimSpace(raw.Phone),
		Email:      strings.TrimSpace(raw.Email),
		Gender:     strings.TrimSpace(raw.Gender),
		UnitNumber: strings.TrimSpace(raw.UnitNumber),
		FacePhoto:  strings.TrimSpace(raw.FacePhoto),
		Status:     strings.ToLower(strings.TrimSpace(raw.Status)),
	}
	if in.InternalID == "" {
		in.InternalID = in.NationalID
	}
	if in.Status == "" {
		in.Status = string(domain.WorkerStatusActive)
	}

	if err := workerValidate.Struct(in); err != nil {
		return nil, describeValidation(err)
	}

	validFrom, err := parseDate(raw.ValidFrom)
	if err != nil {
		return nil, fmt.Errorf("validFrom: %w", err)
	}
	validTo, err := parseDate(raw.ValidTo)
	if err != nil {
		return nil, fmt.Errorf("validTo: %w", err)
	}
	if !validFrom.IsZero() && !validTo.IsZero() && validTo.Before(validFrom) {
		return nil, errors.New("validTo is before validFrom")
	}

	return &domain.WorkerRecord{
		InternalID:   in.InternalID,
		NationalID:   in.NationalID,
		Name:         in.Name,
		Phone:        in.Phone,
		Email:        in.Email,
		Gender:       in.Gender,
		UnitNumber:   in.UnitNumber,
		FaceImageURL: in.FacePhoto,
		ValidFrom:    validFrom,
		ValidTo:      validTo,
		Status:       domain.WorkerStatus(in.Status),
	}, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func describeValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fieldName(fe.Field())))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of [%s]", fieldName(fe.Field()), fe.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must not exceed %s characters", fieldName(fe.Field()), fe.Param()))
		case "url|datauri":
			msgs = append(msgs, fmt.Sprintf("%s must be a URL or data URI", fieldName(fe.Field())))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is not a valid %s", fieldName(fe.Field()), fe.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}

// fieldName reports errors in the roster's vocabulary
func fieldName(field string) string {
	switch field {
	case "InternalID":
		return "id"
	case "NationalID":
		return "nationalIdNumber"
	case "Name":
		return "fullName"
	case "FacePhoto":
		return "facePhoto"
	case "UnitNumber":
		return "unitNumber"
	default:
		return strings.ToLower(field)
	}
}
