package resources

import (
	"encoding/json"
	"errors"

	"farmbot-server/entities"

	log "github.com/go-pkgz/lgr"
)

// Request is a resources message sent by a device over its websocket.
type Request struct {
	Kind       string         `json:"kind"`
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	ResourceID uint           `json:"resource_id"`
	Body       map[string]any `json:"body"`
	UUID       string         `json:"uuid"`
}

// Reply is sent back to the device, labelled with the request uuid.
type Reply struct {
	Kind   string   `json:"kind"` // rpc_ok | rpc_error
	Label  string   `json:"label"`
	Errors []string `json:"errors,omitempty"`
}

// Service turns raw resources messages into Job runs.
type Service struct {
	job *Job
}

func NewService(job *Job) *Service {
	return &Service{job: job}
}

// Handle runs the request in raw for device and builds the reply.
func (s *Service) Handle(device *entities.Device, raw []byte) Reply {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		log.Printf("[WARN] bad resources message from device %d: %v", device.ID, err)
		return Reply{Kind: "rpc_error", Errors: []string{"invalid message"}}
	}
	if req.UUID == "" {
		req.UUID = "NONE"
	}

	_, err := s.job.Run(Params{
		Action:     req.Action,
		Resource:   req.Resource,
		ResourceID: req.ResourceID,
		Body:       req.Body,
		UUID:       req.UUID,
		Device:     device,
	})
	if err != nil {
		var verr *Errors
		if errors.As(err, &verr) {
			return Reply{Kind: "rpc_error", Label: req.UUID, Errors: verr.MessageList()}
		}
		log.Printf("[ERROR] resources job for device %d failed: %v", device.ID, err)
		return Reply{Kind: "rpc_error", Label: req.UUID, Errors: []string{"internal error"}}
	}
	return Reply{Kind: "rpc_ok", Label: req.UUID}
}
