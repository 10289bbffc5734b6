package pegasus

import (
	"fmt"
	"strings"
)

// Dataset identifies one of the Pegasus tables exposed by the API.
type Dataset string

const (
	DatasetSites Dataset = "sites"
	DatasetTRB   Dataset = "trb"
	DatasetPMWO  Dataset = "pmwo"
	DatasetSWO   Dataset = "swo"
)

// Datasets lists every supported dataset in display order.
func Datasets() []Dataset {
	return []Dataset{DatasetSites, DatasetTRB, DatasetPMWO, DatasetSWO}
}

// ParseDataset validates a user supplied dataset name.
func ParseDataset(name string) (Dataset, error) {
	ds := Dataset(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Datasets() {
		if ds == known {
			return ds, nil
		}
	}
	return "", fmt.Errorf("unknown dataset %q, must be one of %v", name, Datasets())
}

func (d Dataset) String() string {
	return string(d)
}

// Title is the dataset heading used in table titles and the dashboard.
func (d Dataset) Title() string {
	switch d {
	case DatasetSites:
		return "Sites"
	case DatasetTRB:
		return "Trouble Tickets (TRB)"
	case DatasetPMWO:
		return "Preventive Maintenance Work Orders (PMWO)"
	case DatasetSWO:
		return "Site Work Orders (SWO)"
	default:
		return string(d)
	}
}
