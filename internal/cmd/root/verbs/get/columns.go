package get

import (
	"github.com/pegasus-infra/pegasusctl/internal/pegasus"
	"github.com/pegasus-infra/pegasusctl/internal/view/dataview"
)

// Surfaced columns per dataset. Keys follow the Pegasus table columns; any
// field not listed here still reaches the detail panel through the
// remaining-fields section.
var datasetColumns = map[pegasus.Dataset][]dataview.Column{
	pegasus.DatasetSites: {
		{Key: "site_id", Label: "Site ID", Width: 12},
		{Key: "site_name", Label: "Nom du site"},
		{Key: "province", Label: "Province", Width: 14},
		{Key: "zone", Label: "Zone", Width: 10},
		{Key: "class", Label: "Classe", Width: 8},
		{Key: "type", Label: "Type", Width: 12},
		{Key: "is_under_maintenance", Label: "En maintenance", Width: 14},
		{Key: "has_genset", Label: "Groupe électrogène", Width: 18},
		{Key: "tower_height", Label: "Hauteur pylône", Width: 14},
	},
	pegasus.DatasetTRB: {
		{Key: "ticket_id", Label: "Ticket", Width: 12},
		{Key: "site_id", Label: "Site ID", Width: 12},
		{Key: "site_name", Label: "Nom du site"},
		{Key: "category", Label: "Catégorie", Width: 16},
		{Key: "severity", Label: "Sévérité", Width: 10},
		{Key: "status", Label: "Statut", Width: 12},
		{Key: "opened_at", Label: "Ouvert le", Width: 18},
		{Key: "closed_at", Label: "Clôturé le", Width: 18},
	},
	pegasus.DatasetPMWO: {
		{Key: "wo_number", Label: "OT", Width: 12},
		{Key: "site_id", Label: "Site ID", Width: 12},
		{Key: "pm_cluster", Label: "Cluster PM", Width: 12},
		{Key: "pm_frequency", Label: "Fréquence", Width: 10},
		{Key: "scheduled_date", Label: "Planifié le", Width: 18},
		{Key: "executed_date", Label: "Exécuté le", Width: 18},
		{Key: "status", Label: "Statut", Width: 12},
		{Key: "fe_name", Label: "Technicien", Width: 16},
	},
	pegasus.DatasetSWO: {
		{Key: "swo_number", Label: "OT", Width: 12},
		{Key: "site_id", Label: "Site ID", Width: 12},
		{Key: "site_name", Label: "Nom du site"},
		{Key: "work_type", Label: "Type de travaux", Width: 16},
		{Key: "vendor", Label: "Prestataire", Width: 14},
		{Key: "status", Label: "Statut", Width: 12},
		{Key: "created_at", Label: "Créé le", Width: 18},
		{Key: "completed_at", Label: "Terminé le", Width: 18},
	},
}

// ColumnsFor returns the surfaced columns for a dataset. Unknown datasets
// get none, which pushes every field into the remaining section.
func ColumnsFor(ds pegasus.Dataset) []dataview.Column {
	return datasetColumns[ds]
}
