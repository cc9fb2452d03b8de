// File: utils/constants.go
package utils

import "time"

// HealthCheckInterval is how often external dependencies are pinged.
const HealthCheckInterval = 60 * time.Second

// RequestTimeout bounds the work done for a single API request.
const RequestTimeout = 30 * time.Second
