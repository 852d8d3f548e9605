// VaultView - Monitored Document Viewing with Tamper-Evident Audit Trail
// Copyright 2026 VaultView Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vaultview/vaultview

package session

import (
	"fmt"

	"github.com/vaultview/vaultview/internal/auditlog"
)

// LockThreshold is the warning count at which the document interaction layer
// locks until the user explicitly acknowledges.
const LockThreshold = 3

// Escalate maps a running violation count to the severity and user-facing
// message for that violation. It is a pure function: counts 1 and 2 produce
// WARNING, counts of 3 and above produce CRITICAL and the caller locks the
// interaction layer.
func Escalate(warningCount int) (auditlog.Severity, string) {
	switch {
	case warningCount <= 0:
		return auditlog.SeverityInfo, ""
	case warningCount == 1:
		return auditlog.SeverityWarning,
			"Unauthorized action detected. This incident has been recorded."
	case warningCount == 2:
		return auditlog.SeverityWarning,
			"Second unauthorized action detected. One more attempt will lock this document."
	default:
		return auditlog.SeverityCritical,
			fmt.Sprintf("Critical: %d unauthorized actions recorded. The document is locked until you acknowledge this warning.", warningCount)
	}
}
