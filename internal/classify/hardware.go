package classify

import "strings"

var hwmonCategories = map[string]string{
	"k10temp":   "CPU",
	"coretemp":  "CPU",
	"zenpower":  "CPU",
	"nvme":      "NVMe",
	"drivetemp": "Disk",
	"amdgpu":    "GPU",
	"nouveau":   "GPU",
	"radeon":    "GPU",
	"acpitz":    "ACPI",
	"thinkpad":  "Thinkpad",
	"iwlwifi_1": "WiFi",
	"nct6775":   "Mainboard",
	"nct6776":   "Mainboard",
	"nct6779":   "Mainboard",
	"nct6791":   "Mainboard",
	"nct6792":   "Mainboard",
	"nct6793":   "Mainboard",
	"nct6795":   "Mainboard",
	"nct6796":   "Mainboard",
	"nct6798":   "Mainboard",
	"it8688":    "Mainboard",
	"it8689":    "Mainboard",
	"it8665":    "Mainboard",
}

// HwmonCategory maps a hwmon driver name to a display category.
func HwmonCategory(driver string) string {
	if c, ok := hwmonCategories[driver]; ok {
		return c
	}
	return "Other"
}

// IPMISensorGroup buckets an ipmitool temperature sensor by name.
func IPMISensorGroup(name string) string {
	upper := strings.ToUpper(name)
	switch {
	case strings.Contains(upper, "DDR"):
		return "DDR"
	case strings.Contains(upper, "VRM"):
		return "VRM"
	case strings.Contains(upper, "MB") || upper == "TEMP_CPU":
		return "Mainboard"
	default:
		return "Other"
	}
}

type PCIKind string

const (
	PCIStorage PCIKind = "storage"
	PCINetwork PCIKind = "network"
	PCIDisplay PCIKind = "display"
	PCIOther   PCIKind = "other"
)

// PCIClass maps the 24-bit PCI class code to a device kind using its top byte.
func PCIClass(classCode uint32) PCIKind {
	switch (classCode >> 16) & 0xff {
	case 0x01, 0x12:
		return PCIStorage
	case 0x02:
		return PCINetwork
	case 0x03:
		return PCIDisplay
	default:
		return PCIOther
	}
}

// WantedPCIClass reports whether a device class is worth showing: storage,
// network, display and processing accelerators.
func WantedPCIClass(classCode uint32) bool {
	switch (classCode >> 16) & 0xff {
	case 0x01, 0x02, 0x03, 0x12:
		return true
	}
	return false
}

var netFSTypes = map[string]bool{
	"nfs": true, "nfs4": true, "nfs3": true, "cifs": true, "smbfs": true,
	"glusterfs": true, "ceph": true, "lustre": true, "9p": true, "fuse.sshfs": true,
}

// IsNetFS reports whether a mount's filesystem type is network backed.
func IsNetFS(fstype string) bool {
	return netFSTypes[fstype]
}

// NetFSLabel returns the short protocol label shown for a network mount.
func NetFSLabel(fstype string) string {
	switch {
	case strings.Contains(fstype, "nfs"):
		return "NFS"
	case strings.Contains(fstype, "cifs"):
		return "SMB"
	case strings.Contains(fstype, "iscsi"), strings.Contains(fstype, "fcoe"):
		return "SAN"
	case strings.Contains(fstype, "gluster"):
		return "Gluster"
	case strings.Contains(fstype, "ceph"):
		return "Ceph"
	case strings.Contains(fstype, "lustre"):
		return "Lustre"
	case strings.Contains(fstype, "9p"):
		return "9P"
	}
	label := strings.ToUpper(fstype)
	if len(label) > 6 {
		label = label[:6]
	}
	return label
}
