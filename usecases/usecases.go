package usecases

import (
	"errors"
	"time"

	"farmbot-server/cache"
	"farmbot-server/entities"
	"farmbot-server/fbos"
	"farmbot-server/repositories"
	"farmbot-server/services"

	log "github.com/go-pkgz/lgr"
)

// ReleaseSource reports the newest FarmBot OS releases, ok is false until the first fetch.
type ReleaseSource interface {
	Latest() (services.Release, bool)
}

// Presence tells whether a device has a live bot connection.
type Presence interface {
	IsConnected(deviceID uint) bool
}

type DeviceUseCase struct {
	DeviceRepo repositories.DeviceRepository
	States     *cache.BotStateCache
	Releases   ReleaseSource
	Presence   Presence
}

func NewDeviceUseCase(deviceRepo repositories.DeviceRepository, states *cache.BotStateCache, releases ReleaseSource, presence Presence) *DeviceUseCase {
	return &DeviceUseCase{
		DeviceRepo: deviceRepo,
		States:     states,
		Releases:   releases,
		Presence:   presence,
	}
}

// DeviceUpdate holds the user editable device fields, nil means unchanged.
type DeviceUpdate struct {
	Name      *string `json:"name"`
	Timezone  *string `json:"timezone"`
	BetaOptIn *bool   `json:"beta_opt_in"`
}

// BotStatus is the part of the bot state a device reports over its websocket.
type BotStatus struct {
	ControllerVersion string                      `json:"controller_version"`
	Commit            string                      `json:"commit"`
	CurrentlyOnBeta   bool                        `json:"currently_on_beta"`
	Jobs              map[string]fbos.JobProgress `json:"jobs"`
}

// GetDevice retrieves a device by ID
func (uc *DeviceUseCase) GetDevice(id uint) (*entities.Device, error) {
	if id == 0 {
		return nil, errors.New("device id is required")
	}
	device, err := uc.DeviceRepo.GetByID(id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrNotFound
	}
	return device, err
}

// UpdateDevice applies the provided fields
func (uc *DeviceUseCase) UpdateDevice(id uint, upd DeviceUpdate) (*entities.Device, error) {
	existing, err := uc.GetDevice(id)
	if err != nil {
		return nil, err
	}
	if upd.Name != nil {
		if *upd.Name == "" {
			return nil, invalid("name", "can't be blank")
		}
		existing.Name = *upd.Name
	}
	if upd.Timezone != nil {
		if _, err := time.LoadLocation(*upd.Timezone); err != nil {
			return nil, invalid("timezone", "is not a valid timezone")
		}
		existing.Timezone = *upd.Timezone
	}
	if upd.BetaOptIn != nil {
		existing.BetaOptIn = *upd.BetaOptIn
	}
	if err := uc.DeviceRepo.Update(existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// DeleteDevice deletes a device and everything it owns
func (uc *DeviceUseCase) DeleteDevice(id uint) error {
	if _, err := uc.GetDevice(id); err != nil {
		return err
	}
	uc.States.Delete(id)
	return uc.DeviceRepo.Delete(id)
}

// ReportStatus stores the live bot state and persists the installed version.
func (uc *DeviceUseCase) ReportStatus(id uint, st BotStatus) error {
	device, err := uc.GetDevice(id)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	uc.States.Set(id, cache.BotState{
		ControllerVersion: st.ControllerVersion,
		Commit:            st.Commit,
		CurrentlyOnBeta:   st.CurrentlyOnBeta,
		Jobs:              st.Jobs,
		ReportedAt:        now,
	})

	changed := device.FbosVersion != st.ControllerVersion || device.FbosCommit != st.Commit ||
		device.CurrentlyOnBeta != st.CurrentlyOnBeta
	device.FbosVersion = st.ControllerVersion
	device.FbosCommit = st.Commit
	device.CurrentlyOnBeta = st.CurrentlyOnBeta
	device.LastSawAPI = &now
	if changed {
		log.Printf("[INFO] device %d reports FarmBot OS %s (%s)", id, st.ControllerVersion, st.Commit)
	}
	return uc.DeviceRepo.Update(device)
}

// OsUpdateStatus builds the state of the OS update button for a device.
func (uc *DeviceUseCase) OsUpdateStatus(id uint) (fbos.ButtonProps, error) {
	device, err := uc.GetDevice(id)
	if err != nil {
		return fbos.ButtonProps{}, err
	}
	in := fbos.UpdateInput{BetaOptIn: device.BetaOptIn}
	if uc.Releases != nil {
		if rel, ok := uc.Releases.Latest(); ok {
			in.CurrentOSVersion = rel.Stable
			in.CurrentBetaOSVersion = rel.Beta
			in.CurrentBetaOSCommit = rel.BetaCommit
		}
	}
	if st, ok := uc.States.Get(id); ok {
		if st.ControllerVersion != "" {
			in.ControllerVersion = &st.ControllerVersion
		}
		if st.Commit != "" {
			in.Commit = &st.Commit
		}
		in.CurrentlyOnBeta = st.CurrentlyOnBeta
		in.Jobs = st.Jobs
	}
	in.BotOnline = uc.Presence != nil && uc.Presence.IsConnected(id)
	return fbos.Props(in), nil
}
