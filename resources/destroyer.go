package resources

import (
	"fmt"

	"farmbot-server/entities"
	"farmbot-server/repositories"
)

// Destroyer removes records of a single kind after checking ownership.
type Destroyer struct {
	kind *Kind
	repo repositories.ResourceRepository
}

// CreateDestroyer builds the destroyer for kind.
func CreateDestroyer(kind *Kind, repo repositories.ResourceRepository) *Destroyer {
	return &Destroyer{kind: kind, repo: repo}
}

func (d *Destroyer) Run(record entities.Resource, device *entities.Device) error {
	if device == nil || record.OwnerID() != device.ID {
		return fieldError(d.kind.Singular, fmt.Sprintf("You do not own that %s", d.kind.Singular))
	}
	if d.kind.Name == "Sequence" {
		if err := d.sequenceNotInUse(record.GetID()); err != nil {
			return err
		}
	}
	return d.repo.Delete(record)
}

func (d *Destroyer) sequenceNotInUse(id uint) error {
	events, err := d.repo.Count(&entities.FarmEvent{}, "executable_type = ? AND executable_id = ?", "Sequence", id)
	if err != nil {
		return err
	}
	bindings, err := d.repo.Count(&entities.PinBinding{}, "sequence_id = ?", id)
	if err != nil {
		return err
	}
	if events+bindings > 0 {
		return fieldError("sequence", "sequence is in use")
	}
	return nil
}
