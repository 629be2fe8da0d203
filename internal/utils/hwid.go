package utils

import (
	"github.com/denisbrodbeck/machineid"
)

var HWID = getHWID()

func getHWID() string {
	id, err := machineid.ProtectedID("vaultsync")
	if err != nil {
		return "unknown"
	}
	return id[:16]
}
