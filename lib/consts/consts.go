// Package consts houses constants needed across the application.
package consts

// Version is the current release version.
const Version = "0.1.0"
