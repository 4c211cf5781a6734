package resources

import (
	"encoding/json"
	"errors"
	"strings"

	"farmbot-server/entities"
	"farmbot-server/repositories"

	log "github.com/go-pkgz/lgr"
	"gorm.io/gorm"
)

// Job actions.
const (
	ActionDestroy = "destroy"
	ActionSave    = "save"
)

// Error messages reported by Job.
const (
	NotFound    = "Resource not found"
	NoCreateYet = "Resource creation is not supported over this channel yet"
)

// fields a save can never overwrite
var protectedFields = []string{"id", "device_id", "created_at", "updated_at", "discarded_at"}

// isProtected folds case the same way encoding/json matches struct fields.
func isProtected(key string) bool {
	for _, f := range protectedFields {
		if strings.EqualFold(key, f) {
			return true
		}
	}
	return false
}

// Notifier receives an auto-sync message after every successful change.
type Notifier interface {
	AutoSync(deviceID uint, kind string, id uint, body any, label string)
}

// Params is the input of a single Job run.
type Params struct {
	Action     string
	Resource   string
	ResourceID uint
	Body       map[string]any
	UUID       string
	Device     *entities.Device
}

// Job destroys or saves one existing resource on behalf of a device.
type Job struct {
	repo     repositories.ResourceRepository
	notifier Notifier
}

func NewJob(repo repositories.ResourceRepository, notifier Notifier) *Job {
	return &Job{repo: repo, notifier: notifier}
}

// Run executes p. Validation failures come back as *Errors.
// The returned resource is the saved record, or the removed one for destroy.
func (j *Job) Run(p Params) (entities.Resource, error) {
	kind, verr := validate(p)
	if verr != nil {
		return nil, verr
	}

	record := kind.New()
	if err := j.repo.FindByID(record, p.ResourceID); err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			return nil, err
		}
		if p.Action == ActionSave {
			return nil, fieldError("body", NoCreateYet)
		}
		return nil, fieldError("resource_id", NotFound)
	}
	// same answer as a missing row, other devices' ids stay private
	if record.OwnerID() != p.Device.ID {
		return nil, fieldError("resource_id", NotFound)
	}

	var body any
	switch p.Action {
	case ActionDestroy:
		if err := CreateDestroyer(kind, j.repo).Run(record, p.Device); err != nil {
			return nil, err
		}
	case ActionSave:
		if err := j.save(record, p.Body, p.Device.ID); err != nil {
			return nil, err
		}
		body = record
	}

	log.Printf("[DEBUG] resource job %s %s#%d for device %d (uuid %s)", p.Action, kind.Name, p.ResourceID, p.Device.ID, p.UUID)
	if j.notifier != nil {
		j.notifier.AutoSync(p.Device.ID, kind.Name, record.GetID(), body, p.UUID)
	}
	return record, nil
}

func validate(p Params) (*Kind, *Errors) {
	errs := &Errors{}
	if p.Device == nil {
		errs.Add("device", "Device is required")
	}
	if p.Action != ActionDestroy && p.Action != ActionSave {
		errs.Add("action", "Unknown action")
	}
	kind, err := Lookup(p.Resource)
	if err != nil {
		errs.Add("resource", "Invalid resource type")
	}
	if !errs.Empty() {
		return nil, errs
	}
	return kind, nil
}

// save merges the keys present in body onto record and writes it back
// only while the row still belongs to deviceID.
func (j *Job) save(record entities.Resource, body map[string]any, deviceID uint) error {
	if err := Assign(record, body); err != nil {
		return err
	}
	if err := j.repo.UpdateOwned(record, deviceID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fieldError("resource_id", NotFound)
		}
		return err
	}
	return nil
}

// Assign copies the keys present in body onto record. Protected columns are
// ignored in any letter case and the record is validated afterwards.
func Assign(record entities.Resource, body map[string]any) error {
	clean := make(map[string]any, len(body))
	for k, v := range body {
		if !isProtected(k) {
			clean[k] = v
		}
	}
	raw, err := json.Marshal(clean)
	if err != nil {
		return fieldError("body", err.Error())
	}

	owned := *record.Owned()
	var discarded gorm.DeletedAt
	point, isPoint := record.(*entities.Point)
	if isPoint {
		discarded = point.DiscardedAt
	}
	err = json.Unmarshal(raw, record)
	*record.Owned() = owned
	if isPoint {
		point.DiscardedAt = discarded
	}
	if err != nil {
		return fieldError("body", err.Error())
	}
	if v, ok := record.(entities.Validator); ok {
		if field, err := v.Validate(); err != nil {
			return fieldError(field, err.Error())
		}
	}
	return nil
}
