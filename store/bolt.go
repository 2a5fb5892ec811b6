// Package store persists prescriptions and their dose-taken history in an
// embedded bbolt database. Prescriptions live in one top-level bucket keyed
// by ID; each prescription gets its own sub-bucket of daily dose records
// keyed by day. Writes are transactional, so a crash mid-write cannot
// corrupt previously committed data.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/aroovee/rxmindr-sub000/entities"
	"github.com/aroovee/rxmindr-sub000/interfaces"
	"github.com/aroovee/rxmindr-sub000/logging"
)

// Compile-time check to ensure BoltStore implements PrescriptionStore
var _ interfaces.PrescriptionStore = (*BoltStore)(nil)

// Bucket keys
var (
	bucketPrescriptions = []byte("prescriptions")
	bucketRecords       = []byte("records")
)

// Day key layout for record sub-buckets.
const dayKeyLayout = "2006-01-02"

// Pills remaining at or below this fire a critical refill alert on dose
// recording.
const criticalPillThreshold = 3

// ErrNotFound is returned when no prescription exists for the given ID.
var ErrNotFound = errors.New("prescription not found")

// BoltStore implements interfaces.PrescriptionStore backed by bbolt.
type BoltStore struct {
	db     *bolt.DB
	alerts interfaces.AlertSink
	now    func() time.Time
}

// NewBoltStore opens (or creates) a bbolt database at the given path. The
// alert sink may be nil, in which case low-pill triggers are dropped.
func NewBoltStore(path string, alerts interfaces.AlertSink) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("bbolt open: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketPrescriptions); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(bucketRecords)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("bbolt init buckets: %w", err)
	}

	return &BoltStore{db: db, alerts: alerts, now: time.Now}, nil
}

// Close closes the underlying bbolt database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// SavePrescription inserts or updates a prescription. A missing ID gets a
// fresh one; CreatedAt is set on first save and UpdatedAt on every save.
func (s *BoltStore) SavePrescription(p *entities.Prescription) error {
	if p == nil {
		return fmt.Errorf("nil prescription")
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	now := s.now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prescription: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketPrescriptions).Put([]byte(p.ID), data)
	})
}

// GetPrescription retrieves a prescription by ID. Returns ErrNotFound when
// no prescription exists for the ID.
func (s *BoltStore) GetPrescription(id string) (*entities.Prescription, error) {
	var data []byte

	err := s.db.View(func(tx *bolt.Tx) error {
		// Copy bytes out of the transaction (bbolt slices are only valid within tx)
		if v := tx.Bucket(bucketPrescriptions).Get([]byte(id)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, ErrNotFound
	}

	var p entities.Prescription
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("unmarshal prescription: %w", err)
	}
	return &p, nil
}

// ListPrescriptions returns all prescriptions sorted by medication name.
func (s *BoltStore) ListPrescriptions() ([]entities.Prescription, error) {
	prescriptions := make([]entities.Prescription, 0)

	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketPrescriptions).ForEach(func(k, v []byte) error {
			var p entities.Prescription
			if err := json.Unmarshal(v, &p); err != nil {
				return fmt.Errorf("unmarshal prescription %q: %w", string(k), err)
			}
			prescriptions = append(prescriptions, p)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(prescriptions, func(i, j int) bool {
		return prescriptions[i].MedicationName < prescriptions[j].MedicationName
	})
	return prescriptions, nil
}

// ListRecords returns the dose-taken history for a prescription, oldest day
// first. A prescription with no recorded doses yields an empty slice.
func (s *BoltStore) ListRecords(prescriptionID string) ([]entities.MedicationRecord, error) {
	records := make([]entities.MedicationRecord, 0)

	err := s.db.View(func(tx *bolt.Tx) error {
		rb := tx.Bucket(bucketRecords).Bucket([]byte(prescriptionID))
		if rb == nil {
			return nil
		}
		// Day keys sort lexicographically in date order
		return rb.ForEach(func(k, v []byte) error {
			var r entities.MedicationRecord
			if err := json.Unmarshal(v, &r); err != nil {
				return fmt.Errorf("unmarshal record %q: %w", string(k), err)
			}
			records = append(records, r)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// RecordDose registers one dose taken at the given time: the day's record is
// created or incremented and the pill count, when tracked, is decremented
// without going below zero. When the remaining count crosses the critical
// threshold the alert sink is triggered. Returns the updated prescription.
func (s *BoltStore) RecordDose(prescriptionID string, at time.Time) (*entities.Prescription, error) {
	var updated entities.Prescription

	err := s.db.Update(func(tx *bolt.Tx) error {
		pb := tx.Bucket(bucketPrescriptions)
		raw := pb.Get([]byte(prescriptionID))
		if raw == nil {
			return ErrNotFound
		}

		var p entities.Prescription
		if err := json.Unmarshal(raw, &p); err != nil {
			return fmt.Errorf("unmarshal prescription: %w", err)
		}

		rb, err := tx.Bucket(bucketRecords).CreateBucketIfNotExists([]byte(prescriptionID))
		if err != nil {
			return err
		}

		// Date must share the day key's calendar day: Truncate works on UTC
		// and disagrees with the local-time key near midnight.
		day := at.Format(dayKeyLayout)
		record := entities.MedicationRecord{
			PrescriptionID: prescriptionID,
			Date:           time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, at.Location()),
			DosesTaken:     0,
			DosesExpected:  p.DailyFrequency,
		}
		if existing := rb.Get([]byte(day)); existing != nil {
			if err := json.Unmarshal(existing, &record); err != nil {
				return fmt.Errorf("unmarshal record %q: %w", day, err)
			}
		}
		record.DosesTaken++

		recordJSON, err := json.Marshal(&record)
		if err != nil {
			return fmt.Errorf("marshal record: %w", err)
		}
		if err := rb.Put([]byte(day), recordJSON); err != nil {
			return err
		}

		if p.PillsRemaining != nil && *p.PillsRemaining > 0 {
			remaining := *p.PillsRemaining - 1
			p.PillsRemaining = &remaining
		}
		p.UpdatedAt = s.now()

		prescriptionJSON, err := json.Marshal(&p)
		if err != nil {
			return fmt.Errorf("marshal prescription: %w", err)
		}
		if err := pb.Put([]byte(prescriptionID), prescriptionJSON); err != nil {
			return err
		}

		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.alerts != nil && updated.PillsRemaining != nil && *updated.PillsRemaining <= criticalPillThreshold {
		s.alerts.TriggerCritical(updated)
		logging.Debug("Critical pill threshold reached",
			"prescription_id", updated.ID,
			"pills_remaining", *updated.PillsRemaining)
	}

	return &updated, nil
}
