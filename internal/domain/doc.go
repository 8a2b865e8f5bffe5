// Package domain models field-entry risk screening for a single location.
//
// # Observations
//
// Weather comes from the Open-Meteo forecast API. Each refresh is reduced to an
// [Observation]: the instantaneous temperature and wind speed plus the maximum
// precipitation and snowfall over the forecast horizon.
//
// Horizon:
//
//	The first HorizonHours (6) entries of the hourly series, in provider order.
//	Entries that are not JSON numbers are dropped before taking the maximum.
//	An empty filtered window yields 0. A missing or non-array series yields nil,
//	which the scorer reads as "rule does not apply".
//
// Units:
//
//	temperature  °C
//	wind speed   km/h
//	rain         mm per hourly bucket
//	snowfall     cm per hourly bucket
//
// # Scoring
//
// [Score] applies a fixed, ordered rule table to an Observation and the user's
// [UserInputs]. Each rule fires at most once and contributes points and,
// except for the severity surcharge, one reason string. Reasons keep rule order.
//
//	Rule                         Points  Condition
//	wind                         +2      wind > 40 km/h
//	precipitation                +2      rain >= 2 mm
//	freeze-thaw                  +3      temp <= 1 °C and rain > 0
//	freezing (else-branch)       +2      temp <= 0 °C
//	snow accumulation            +2      snow > 1 cm
//	heavy snowfall               +3      snow > 5 cm
//	wet ground                   +2      ground = wet
//	unstable ground              +3      ground = unstable
//	hilly terrain                +2      terrain = hilly
//	severity surcharge           +0/1/2  low/medium/high
//
// Levels are derived from the total alone:
//
//	score >= 4   NOT_RECOMMENDED
//	score >= 2   CAUTION
//	otherwise    SAFE
package domain
