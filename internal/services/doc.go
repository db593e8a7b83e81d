// Package services holds cross-cutting helpers shared by the capability
// clients under services/ and the orchestrators that call them: sentinel
// error markers with contextual wrapping, and context tagging for
// structured logging.
package services
