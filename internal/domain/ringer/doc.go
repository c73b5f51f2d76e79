// Package ringer contains core domain types for the phone ringer.
//
// It defines Mode (the closed set of ringer modes), Actor and State (who set
// the ringer and when) and History (what the policy engine remembers about its
// own writes so it can decide whether a restore is still valid).
package ringer
