// Package security derives a posture report from engine configuration. The
// report is informational; hard requirements are enforced by Config.Validate.
package security
