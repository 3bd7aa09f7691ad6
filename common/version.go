package common

import (
	"time"
)

const releaseYear = 2024
const releaseMonth = 6
const releaseDay = 3
const releaseHour = 10
const releaseMin = 0

const Version = "0.1.0"

var ReleasedAt = time.Date(releaseYear, releaseMonth, releaseDay, releaseHour, releaseMin, 0, 0, time.UTC)
