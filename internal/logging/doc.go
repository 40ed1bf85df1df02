// Package logging provides the leveled logger used across the module.
package logging
