package resources

import (
	"errors"
	"sort"
	"strings"

	"farmbot-server/entities"
)

// ErrUnknownKind is returned by Lookup for names outside the registry.
var ErrUnknownKind = errors.New("unknown resource kind")

// Kind describes one polymorphic resource type.
type Kind struct {
	Name     string // FarmEvent
	Singular string // farm_event
	Plural   string // farm_events
	New      func() entities.Resource
	NewSlice func() any // pointer to an empty slice of the model
}

var (
	kinds   = map[string]*Kind{}
	aliases = map[string]string{}
)

func register(k *Kind, extra ...string) {
	kinds[k.Name] = k
	for _, name := range append([]string{k.Name, k.Singular, k.Plural}, extra...) {
		aliases[strings.ToLower(name)] = k.Name
	}
}

func init() {
	register(&Kind{Name: "FarmEvent", Singular: "farm_event", Plural: "farm_events",
		New:      func() entities.Resource { return &entities.FarmEvent{} },
		NewSlice: func() any { return &[]entities.FarmEvent{} }})
	register(&Kind{Name: "FarmwareInstallation", Singular: "farmware_installation", Plural: "farmware_installations",
		New:      func() entities.Resource { return &entities.FarmwareInstallation{} },
		NewSlice: func() any { return &[]entities.FarmwareInstallation{} }})
	register(&Kind{Name: "Image", Singular: "image", Plural: "images",
		New:      func() entities.Resource { return &entities.Image{} },
		NewSlice: func() any { return &[]entities.Image{} }})
	register(&Kind{Name: "Log", Singular: "log", Plural: "logs",
		New:      func() entities.Resource { return &entities.Log{} },
		NewSlice: func() any { return &[]entities.Log{} }})
	register(&Kind{Name: "Peripheral", Singular: "peripheral", Plural: "peripherals",
		New:      func() entities.Resource { return &entities.Peripheral{} },
		NewSlice: func() any { return &[]entities.Peripheral{} }})
	register(&Kind{Name: "PinBinding", Singular: "pin_binding", Plural: "pin_bindings",
		New:      func() entities.Resource { return &entities.PinBinding{} },
		NewSlice: func() any { return &[]entities.PinBinding{} }})
	register(&Kind{Name: "PlantTemplate", Singular: "plant_template", Plural: "plant_templates",
		New:      func() entities.Resource { return &entities.PlantTemplate{} },
		NewSlice: func() any { return &[]entities.PlantTemplate{} }})
	register(&Kind{Name: "Point", Singular: "point", Plural: "points",
		New:      func() entities.Resource { return &entities.Point{} },
		NewSlice: func() any { return &[]entities.Point{} }},
		entities.GenericPointer, entities.Plant, entities.ToolSlot)
	register(&Kind{Name: "Regimen", Singular: "regimen", Plural: "regimens",
		New:      func() entities.Resource { return &entities.Regimen{} },
		NewSlice: func() any { return &[]entities.Regimen{} }})
	register(&Kind{Name: "SavedGarden", Singular: "saved_garden", Plural: "saved_gardens",
		New:      func() entities.Resource { return &entities.SavedGarden{} },
		NewSlice: func() any { return &[]entities.SavedGarden{} }})
	register(&Kind{Name: "Sensor", Singular: "sensor", Plural: "sensors",
		New:      func() entities.Resource { return &entities.Sensor{} },
		NewSlice: func() any { return &[]entities.Sensor{} }})
	register(&Kind{Name: "SensorReading", Singular: "sensor_reading", Plural: "sensor_readings",
		New:      func() entities.Resource { return &entities.SensorReading{} },
		NewSlice: func() any { return &[]entities.SensorReading{} }})
	register(&Kind{Name: "Sequence", Singular: "sequence", Plural: "sequences",
		New:      func() entities.Resource { return &entities.Sequence{} },
		NewSlice: func() any { return &[]entities.Sequence{} }})
	register(&Kind{Name: "WebcamFeed", Singular: "webcam_feed", Plural: "webcam_feeds",
		New:      func() entities.Resource { return &entities.WebcamFeed{} },
		NewSlice: func() any { return &[]entities.WebcamFeed{} }})
}

// Lookup finds a kind by class name, singular or plural, case insensitive.
// The pointer types GenericPointer, Plant and ToolSlot are plain aliases of
// Point: a job for "Plant" acts on any point row, whatever its pointer_type.
func Lookup(name string) (*Kind, error) {
	canonical, ok := aliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, ErrUnknownKind
	}
	return kinds[canonical], nil
}

// Kinds returns every registered kind ordered by name.
func Kinds() []*Kind {
	res := make([]*Kind, 0, len(kinds))
	for _, k := range kinds {
		res = append(res, k)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Name < res[j].Name })
	return res
}
