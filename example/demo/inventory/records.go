package inventory

import (
	"fmt"
	"time"

	"github.com/badock/object-graph-rehydrator-go/rehydrator"
)

// datetimeLayout is the wire representation of datetime values,
// e.g. "Jan 02 2020 03:04:05".
const datetimeLayout = "Jan 02 2006 15:04:05"

const instanceSubnet = "10.0.0.0/24"

// DatetimeValue encodes a timestamp into its datetime-tagged wire form.
func DatetimeValue(t time.Time) rehydrator.Document {
	return rehydrator.Document{
		rehydrator.KeyStrategy: rehydrator.StrategyDatetime,
		rehydrator.KeyValue:    t.UTC().Format(datetimeLayout),
		rehydrator.KeyTimezone: "UTC",
	}
}

// IPNetworkValue encodes a CIDR string into its ip-network-tagged wire form.
func IPNetworkValue(value string) rehydrator.Document {
	return rehydrator.Document{
		rehydrator.KeyStrategy: rehydrator.StrategyIPNetwork,
		rehydrator.KeyValue:    value,
	}
}

// HypervisorRef builds an object-ref stub pointing at a stored hypervisor.
func HypervisorRef(hypervisorID string) rehydrator.Document {
	return rehydrator.Document{
		rehydrator.KeyStrategy:   rehydrator.StrategyObjectRef,
		rehydrator.KeyClassname:  HypervisorClassname,
		rehydrator.KeyCollection: HypervisorCollection,
		rehydrator.KeyID:         hypervisorID,
	}
}

// HypervisorRecord builds the simplified record of one hypervisor.
func HypervisorRecord(hypervisorID string, rack string) rehydrator.Document {
	return rehydrator.Document{
		rehydrator.KeyClassname:  HypervisorClassname,
		rehydrator.KeyCollection: HypervisorCollection,
		rehydrator.KeyID:         hypervisorID,
		"fqdn":                   hypervisorID + ".compute.local",
		"rack":                   rack,
		"capacity_vcpus":         float64(96),
	}
}

// VolumeRecord builds the simplified record of one volume. The device name
// and size derive from the attachment position.
func VolumeRecord(volumeID string, position int, attachedAt time.Time) rehydrator.Document {
	return rehydrator.Document{
		rehydrator.KeyClassname:  VolumeClassname,
		rehydrator.KeyCollection: VolumeCollection,
		rehydrator.KeyID:         volumeID,
		"device":                 fmt.Sprintf("/dev/vd%c", 'b'+rune(position%24)),
		"size_gb":                float64(20 * (position + 1)),
		"attached_at":            DatetimeValue(attachedAt),
	}
}

// InstanceRecord builds the simplified record of one instance. The volumes
// embed as full inline records, the host field stays an object-ref stub so
// the hypervisor record is fetched from the store during rehydration.
func InstanceRecord(
	instanceID string,
	hypervisorID string,
	flavor string,
	vcpus int64,
	volumeIDs []string,
	launchedAt time.Time,
) rehydrator.Document {

	volumes := make(rehydrator.Sequence, 0, len(volumeIDs))
	for position, volumeID := range volumeIDs {
		volumes = append(volumes, VolumeRecord(volumeID, position, launchedAt))
	}

	return rehydrator.Document{
		rehydrator.KeyClassname:  InstanceClassname,
		rehydrator.KeyCollection: InstanceCollection,
		rehydrator.KeyID:         instanceID,
		"hostname":               "vm-" + instanceID,
		"flavor":                 flavor,
		"vcpus":                  float64(vcpus),
		"launched_at":            DatetimeValue(launchedAt),
		"subnet":                 IPNetworkValue(instanceSubnet),
		"user_id":                "user-demo",
		"project_id":             "project-demo",
		"volumes":                volumes,
		"host":                   HypervisorRef(hypervisorID),
	}
}
