// Package selector records which sandbox version `run` launches.
package selector
