package model

// CodeType represents one of the Medicare RPM billing codes this engine tracks.
type CodeType struct {
	Name string // e.g. "DeviceUse"
	CPT  string // Medicare CPT label, e.g. "99454"
}

// AllCodeTypes lists the tracked code types in canonical order.
var AllCodeTypes = []CodeType{
	{Name: "InitialVisit", CPT: "99202"},
	{Name: "DeviceSetup", CPT: "99453"},
	{Name: "DeviceUse", CPT: "99454"},
	{Name: "FirstInteraction20Min", CPT: "99457"},
	{Name: "AdditionalInteraction20Min", CPT: "99458"},
}

// CPT labels used throughout the rule engine.
const (
	CPTInitialVisit          = "99202"
	CPTDeviceSetup           = "99453"
	CPTDeviceUse             = "99454"
	CPTFirstInteraction      = "99457"
	CPTAdditionalInteraction = "99458"
)

// InitialVisitFamily is the new-patient E/M code family. A patient already
// coded under any member counts as having had their initial visit, so 99202
// is never applied on top of a sibling.
var InitialVisitFamily = []string{"99202", "99203", "99204", "99205"}

// CodeTypeByCPT returns the CodeType for the given CPT label, or ok=false.
func CodeTypeByCPT(cpt string) (CodeType, bool) {
	for _, ct := range AllCodeTypes {
		if ct.CPT == cpt {
			return ct, true
		}
	}
	return CodeType{}, false
}
