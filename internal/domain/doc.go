// Package domain models Los Angeles crime incident records and the pure
// pipeline that turns them into display-ready incidents.
//
// # Data Source
//
// Incident records come from the LAPD "Crime Data from 2020 to Present" open
// data set, either through an upstream incident API (JSON, one object per
// incident) or as the raw CSV export. Both carry the same free-text columns:
// crime description ("Crm Cd Desc"), premise, weapon, status, area name and a
// street location, plus WGS-84 coordinates.
//
// # Pipeline
//
//	RawRecord → Normalize (Classify, EstimateSeverity) → []Incident → AggregateMix
//
// Every step is a total function: missing or unparseable text degrades to a
// documented default instead of failing.
//
// # Classification
//
// [Classify] maps free text onto one of 16 fixed categories. A raw category
// that already names a known tag (e.g. "ROBBERY") is trusted as-is. Otherwise
// an ordered keyword list is evaluated and the first match wins. Order is
// significant: "VEHICLE - STOLEN" and "BURGLARY FROM VEHICLE" both resolve to
// VEHICLE because the vehicle rule precedes the burglary rule, and any text
// mentioning "homicide" is HOMICIDE regardless of other keywords.
//
// # Severity
//
//	High:   description or weapon mentions "deadly", "weapon" or "assault"
//	Medium: otherwise mentions "burglary" or "robbery"
//	Low:    everything else
//
// # Time Format
//
// The API reports occurrence times as ISO-8601 strings, rendered as
// "YYYY/MM/DD HH:MM" in the display location. The CSV export only carries
// "TIME OCC" as a 24-hour HHMM clock, where three-digit values are zero-padded
// ("930" → "09:30").
//
// # Category Mix
//
// [AggregateMix] computes a rounded percentage per category in canonical
// order, omitting categories that round to zero. Percentages are rounded
// independently and need not sum to 100.
package domain
