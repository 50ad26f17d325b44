// Package oadigest crawls the campus OA portal for announcements published
// on a given day, summarizes each one with a language model, and stores the
// result as a dated record file that feeds the daily email digest.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., goquery/, sqlite/, gemini/).
package oadigest
