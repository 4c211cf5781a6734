package usecases

import (
	"errors"

	"farmbot-server/entities"
	"farmbot-server/repositories"
	"farmbot-server/resources"
)

// ResourceUseCase serves the REST surface of every resource kind. Reads and
// creates are scoped to the device; updates and deletes run through the job.
type ResourceUseCase struct {
	repo     repositories.ResourceRepository
	job      *resources.Job
	notifier resources.Notifier
}

func NewResourceUseCase(repo repositories.ResourceRepository, job *resources.Job, notifier resources.Notifier) *ResourceUseCase {
	return &ResourceUseCase{repo: repo, job: job, notifier: notifier}
}

func (uc *ResourceUseCase) List(kindName string, deviceID uint) (any, error) {
	kind, err := resources.Lookup(kindName)
	if err != nil {
		return nil, err
	}
	out := kind.NewSlice()
	if err := uc.repo.ListByDevice(out, deviceID); err != nil {
		return nil, err
	}
	return out, nil
}

func (uc *ResourceUseCase) Get(kindName string, deviceID, id uint) (entities.Resource, error) {
	kind, err := resources.Lookup(kindName)
	if err != nil {
		return nil, err
	}
	record := kind.New()
	if err := uc.repo.FindOwned(record, deviceID, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return record, nil
}

// Create inserts a new resource for the device and announces it with label.
func (uc *ResourceUseCase) Create(kindName string, device *entities.Device, body map[string]any, label string) (entities.Resource, error) {
	kind, err := resources.Lookup(kindName)
	if err != nil {
		return nil, err
	}
	record := kind.New()
	if err := resources.Assign(record, body); err != nil {
		return nil, err
	}
	record.SetOwner(device.ID)
	if err := uc.repo.Create(record); err != nil {
		return nil, err
	}
	if uc.notifier != nil {
		uc.notifier.AutoSync(device.ID, kind.Name, record.GetID(), record, label)
	}
	return record, nil
}

func (uc *ResourceUseCase) Update(kindName string, device *entities.Device, id uint, body map[string]any, label string) (entities.Resource, error) {
	return uc.Run(resources.Params{
		Action:     resources.ActionSave,
		Resource:   kindName,
		ResourceID: id,
		Body:       body,
		UUID:       label,
		Device:     device,
	})
}

func (uc *ResourceUseCase) Delete(kindName string, device *entities.Device, id uint, label string) error {
	_, err := uc.Run(resources.Params{
		Action:     resources.ActionDestroy,
		Resource:   kindName,
		ResourceID: id,
		UUID:       label,
		Device:     device,
	})
	return err
}

// Run executes a raw job request.
func (uc *ResourceUseCase) Run(p resources.Params) (entities.Resource, error) {
	return uc.job.Run(p)
}
