package instance

import "github.com/angelmondragon/farmacia-backend/pkg/env"

// ID names this process in log entries: FARMACIA_INSTANCE_ID when set,
// otherwise the container hostname, otherwise "local".
func ID() string {
	return env.First("local", "FARMACIA_INSTANCE_ID", "HOSTNAME")
}
