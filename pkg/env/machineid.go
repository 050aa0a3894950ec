package env

import (
	"os"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

// MachineID retrieves the unique ID identifying the machine. It falls
// back to the hostname where no machine ID is available.
func MachineID() string {
	id, err := machineid.ID()
	if err == nil {
		return id
	}
	glog.Warningf("machine id: %v", err)
	if id, err = os.Hostname(); err == nil {
		return id
	}
	return ""
}
