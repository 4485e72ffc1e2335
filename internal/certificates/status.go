package certificates

import "msc-cert/portal-backend/pkg/workflows"

// manualTransitions governs status edits made by staff. EXPIRED is only ever
// entered through DeriveStatus.
var manualTransitions = workflows.NewStateMachine(map[string][]string{
	string(StatusValid):     {string(StatusSuspended), string(StatusWithdrawn)},
	string(StatusSuspended): {string(StatusValid), string(StatusWithdrawn)},
	string(StatusExpired):   {string(StatusWithdrawn)},
	string(StatusWithdrawn): {},
})

// CanChangeStatus reports whether staff may move a certificate from one
// status to another.
func CanChangeStatus(from, to Status) bool {
	return manualTransitions.CanTransition(string(from), string(to))
}

// DeriveStatus computes the status a certificate should have on today.
// A certificate past its expiry date is EXPIRED whatever its current status.
// A VALID certificate past its maintenance date is EXPIRED too. Anything
// else keeps its current status. Zero dates are not evaluated.
func DeriveStatus(today, expiry, nextMaintenance Date, current Status) Status {
	if !expiry.IsZero() && today.After(expiry) {
		return StatusExpired
	}
	if current == StatusValid && !nextMaintenance.IsZero() && today.After(nextMaintenance) {
		return StatusExpired
	}
	return current
}

// RecomputeStatus applies DeriveStatus to c and reports whether it changed.
func (c *Certificate) RecomputeStatus(today Date) bool {
	next := DeriveStatus(today, c.ExpiryDate, c.NextMaintenanceDate, c.Status)
	if next == c.Status {
		return false
	}
	c.Status = next
	return true
}

// PerformMaintenance records a surveillance audit on today and schedules the
// next one a year later. An EXPIRED certificate still inside its validity
// period becomes VALID again. The expiry date is never touched.
func (c *Certificate) PerformMaintenance(today Date) {
	last := today
	c.LastMaintenanceDate = &last
	c.NextMaintenanceDate = today.AddYears(1)
	if c.Status == StatusExpired && !today.After(c.ExpiryDate) {
		c.Status = StatusValid
	}
}

// IsMaintenanceDue reports whether the maintenance date has passed.
func (c *Certificate) IsMaintenanceDue(today Date) bool {
	return !c.NextMaintenanceDate.IsZero() && today.After(c.NextMaintenanceDate)
}

// DaysUntilExpiry is negative once the certificate has expired.
func (c *Certificate) DaysUntilExpiry(today Date) int {
	if c.ExpiryDate.IsZero() {
		return 0
	}
	return today.DaysUntil(c.ExpiryDate)
}
