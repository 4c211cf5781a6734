package usecases

import (
	"errors"
	"time"

	"farmbot-server/entities"
	"farmbot-server/repositories"

	log "github.com/go-pkgz/lgr"
)

// CheckUpdateKind is the RPC that makes FarmBot OS look for and install an update.
const CheckUpdateKind = "check_update"

// Sender pushes messages to connected bots.
type Sender interface {
	IsConnected(deviceID uint) bool
	SendJSON(deviceID uint, v any) error
}

// RPCRequest is the envelope a bot receives for a queued command.
// The bot answers with rpc_ok or rpc_error labelled with ID.
type RPCRequest struct {
	Type      string                 `json:"type"`
	ID        string                 `json:"id"`
	Kind      string                 `json:"kind"`
	Args      map[string]interface{} `json:"args"`
	Timestamp string                 `json:"timestamp"`
}

type CommandsUseCase struct {
	repo   repositories.CommandRepository
	sender Sender
}

func NewCommandsUseCase(r repositories.CommandRepository, sender Sender) *CommandsUseCase {
	return &CommandsUseCase{repo: r, sender: sender}
}

func (uc *CommandsUseCase) Enqueue(deviceID uint, kind string, args map[string]interface{}) (*entities.Command, error) {
	if deviceID == 0 || kind == "" {
		return nil, invalid("kind", "is required")
	}
	if args == nil {
		args = map[string]interface{}{}
	}
	cmd := &entities.Command{
		DeviceID: deviceID,
		Kind:     kind,
		Args:     args,
		Status:   entities.CommandPending,
	}
	if err := uc.repo.Enqueue(cmd); err != nil {
		return nil, err
	}
	return cmd, nil
}

// CheckUpdates queues a FarmBot OS update check.
func (uc *CommandsUseCase) CheckUpdates(deviceID uint) (*entities.Command, error) {
	return uc.Enqueue(deviceID, CheckUpdateKind, map[string]interface{}{"package": "farmbot_os"})
}

func (uc *CommandsUseCase) Poll(deviceID uint, limit int) ([]entities.Command, error) {
	if deviceID == 0 {
		return nil, errors.New("device_id required")
	}
	return uc.repo.GetPendingByDeviceID(deviceID, limit)
}

func (uc *CommandsUseCase) MarkSent(ids []string) error {
	return uc.repo.MarkSent(ids)
}

// Ack records the outcome the device reported for one of its commands.
func (uc *CommandsUseCase) Ack(deviceID uint, commandID, status, response string) error {
	if commandID == "" {
		return invalid("command_id", "is required")
	}
	switch status {
	case "":
		status = entities.CommandOK
	case entities.CommandOK, entities.CommandError:
	default:
		return invalid("status", "must be ok or error")
	}
	err := uc.repo.UpdateStatus(deviceID, commandID, status, response)
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

// Dispatch pushes cmd to the bot when it is online and marks it sent.
func (uc *CommandsUseCase) Dispatch(cmd *entities.Command) bool {
	if uc.sender == nil || !uc.sender.IsConnected(cmd.DeviceID) {
		return false
	}
	req := RPCRequest{
		Type:      "rpc_request",
		ID:        cmd.ID,
		Kind:      cmd.Kind,
		Args:      cmd.Args,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	}
	if err := uc.sender.SendJSON(cmd.DeviceID, req); err != nil {
		log.Printf("[WARN] can't push %s to device %d: %v", cmd.Kind, cmd.DeviceID, err)
		return false
	}
	if err := uc.MarkSent([]string{cmd.ID}); err != nil {
		log.Printf("[WARN] can't mark %s sent: %v", cmd.ID, err)
	}
	cmd.Status = entities.CommandSent
	return true
}

// DispatchPending pushes every queued command of a freshly connected bot.
func (uc *CommandsUseCase) DispatchPending(deviceID uint) int {
	cmds, err := uc.Poll(deviceID, 100)
	if err != nil {
		log.Printf("[WARN] can't load pending commands for device %d: %v", deviceID, err)
		return 0
	}
	sent := 0
	for i := range cmds {
		if !uc.Dispatch(&cmds[i]) {
			break
		}
		sent++
	}
	return sent
}
