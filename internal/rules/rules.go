package rules

import (
	"context"
	"time"

	"github.com/lchcare/rpmbill/internal/model"
)

// EventStore is the read accessor for clinical events. Zero `from` means no
// lower bound (lifetime). Both bounds are inclusive.
type EventStore interface {
	Notes(ctx context.Context, from, to time.Time) ([]model.Note, error)
	Readings(ctx context.Context, from, to time.Time) ([]model.Reading, error)
	Devices(ctx context.Context, modality model.Modality) ([]model.Device, error)
}

// EntryFilter narrows a ledger read. Zero values mean "any".
type EntryFilter struct {
	PatientID int64
	CPTs      []string
	Since     time.Time
	Until     time.Time
}

// CodeLedger is the read accessor for applied billing codes. Rules use it
// only for their own exclusion checks; writes go through the applier.
type CodeLedger interface {
	Entries(ctx context.Context, f EntryFilter) ([]model.LedgerEntry, error)
}

// EvalFunc evaluates one rule against the event and ledger snapshots as of
// the reference date and returns the candidates not yet coded. Evaluation
// never writes; committing candidates is the engine's job.
type EvalFunc func(ctx context.Context, ev EventStore, led CodeLedger, asOf time.Time) ([]model.Candidate, error)

// Rule is one qualification rule. LockKey feeds the advisory lock that
// serializes same-rule invocations; keys must be distinct per rule.
type Rule struct {
	Name     string
	CPT      string
	LockKey  int64
	Evaluate EvalFunc
}

// All lists the rules in canonical batch order. DeviceSetup runs once per
// telemetry modality because its idempotency key is the device, and a
// patient may own one device of each modality.
var All = []Rule{
	{Name: "initial-visit", CPT: model.CPTInitialVisit, LockKey: 4201, Evaluate: evalInitialVisit},
	{Name: "device-setup-glucose", CPT: model.CPTDeviceSetup, LockKey: 4202, Evaluate: evalDeviceSetup(model.ModalityGlucose)},
	{Name: "device-setup-bp", CPT: model.CPTDeviceSetup, LockKey: 4203, Evaluate: evalDeviceSetup(model.ModalityBloodPressure)},
	{Name: "device-use", CPT: model.CPTDeviceUse, LockKey: 4204, Evaluate: evalDeviceUse},
	{Name: "first-interaction", CPT: model.CPTFirstInteraction, LockKey: 4205, Evaluate: evalFirstInteraction},
	{Name: "additional-interaction", CPT: model.CPTAdditionalInteraction, LockKey: 4206, Evaluate: evalAdditionalInteraction},
}

// ByName returns the rule with the given name, or ok=false.
func ByName(name string) (Rule, bool) {
	for _, r := range All {
		if r.Name == name {
			return r, true
		}
	}
	return Rule{}, false
}

// Names returns all rule names in canonical order.
func Names() []string {
	names := make([]string, len(All))
	for i, r := range All {
		names[i] = r.Name
	}
	return names
}
