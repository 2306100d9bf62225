package inventory

// TableName identifies a logical RVTools table (one workbook sheet).
type TableName string

const (
	TableVInfo      TableName = "vInfo"
	TableVCPU       TableName = "vCPU"
	TableVMemory    TableName = "vMemory"
	TableVDisk      TableName = "vDisk"
	TableVPartition TableName = "vPartition"
	TableVNetwork   TableName = "vNetwork"
	TableVSnapshot  TableName = "vSnapshot"
	TableVTools     TableName = "vTools"
	TableVCD        TableName = "vCD"
	TableVFloppy    TableName = "vFloppy"
	TableVHost      TableName = "vHost"
	TableVDatastore TableName = "vDatastore"
	TableVHealth    TableName = "vHealth"
)

// KnownTables lists every table the analysis reads, in workbook order.
var KnownTables = []TableName{
	TableVInfo,
	TableVCPU,
	TableVMemory,
	TableVDisk,
	TableVPartition,
	TableVNetwork,
	TableVSnapshot,
	TableVTools,
	TableVCD,
	TableVFloppy,
	TableVHost,
	TableVDatastore,
	TableVHealth,
}

// IsKnownTable reports whether name is one of the sheets the analysis uses.
func IsKnownTable(name string) bool {
	for _, t := range KnownTables {
		if string(t) == name {
			return true
		}
	}
	return false
}

// Field is a canonical column name. Each table maps it to the header
// spellings different RVTools releases use.
type Field string

const (
	FieldSource Field = "source"

	// virtual machine
	FieldVM          Field = "vm"
	FieldPowerState  Field = "power_state"
	FieldCPUs        Field = "cpus"
	FieldMemory      Field = "memory_mib"
	FieldDisk        Field = "disk_mib"
	FieldProvisioned Field = "provisioned_mib"
	FieldInUse       Field = "in_use_mib"
	FieldHost        Field = "host"
	FieldCluster     Field = "cluster"
	FieldDatacenter  Field = "datacenter"
	FieldOS          Field = "os"
	FieldHWVersion   Field = "hw_version"
	FieldTemplate    Field = "template"

	// per-VM detail sheets
	FieldOverallMHz  Field = "overall_mhz"
	FieldMaxMHz      Field = "max_mhz"
	FieldLimit       Field = "limit"
	FieldReservation Field = "reservation"
	FieldBallooned   Field = "ballooned_mib"
	FieldSwapped     Field = "swapped_mib"
	FieldCapacity    Field = "capacity_mib"
	FieldThin        Field = "thin"
	FieldConsumed    Field = "consumed_mib"
	FieldAdapter     Field = "adapter"
	FieldNetwork     Field = "network"
	FieldName        Field = "name"
	FieldSize        Field = "size_mib"
	FieldDate        Field = "date"
	FieldToolsStatus Field = "tools_status"
	FieldConnected   Field = "connected"
	FieldISOPath     Field = "iso_path"
	FieldDiskLabel   Field = "disk_label"

	// host
	FieldSockets        Field = "sockets"
	FieldCoresPerSocket Field = "cores_per_socket"
	FieldCores          Field = "cores"
	FieldCPUUsage       Field = "cpu_usage_pct"
	FieldMemoryUsage    Field = "memory_usage_pct"
	FieldVCPUs          Field = "vcpus"
	FieldVRAM           Field = "vram_mib"
	FieldCPUModel       Field = "cpu_model"
	FieldESXVersion     Field = "esx_version"
	FieldSpeed          Field = "speed_mhz"
	FieldBIOSDate       Field = "bios_date"
	FieldVendor         Field = "vendor"
	FieldModel          Field = "model"

	// datastore
	FieldFree        Field = "free_mib"
	FieldClusterName Field = "cluster_name"
	FieldType        Field = "type"

	// health
	FieldMessage     Field = "message"
	FieldMessageType Field = "message_type"
)

// Schema maps canonical fields to acceptable header aliases, most preferred first.
type Schema map[Field][]string

var sourceAliases = []string{"Source"}

// Schemas is the alias table used when a Table is built. Headers are matched
// case-insensitively after trimming.
var Schemas = map[TableName]Schema{
	TableVInfo: {
		FieldSource:      sourceAliases,
		FieldVM:          {"VM", "VM Name"},
		FieldPowerState:  {"Powerstate", "Power state", "Power State"},
		FieldCPUs:        {"CPUs", "Num CPU", "vCPUs"},
		FieldMemory:      {"Memory", "Memory MiB", "Memory MB"},
		FieldDisk:        {"Total disk capacity MiB", "Total disk capacity MB"},
		FieldProvisioned: {"Provisioned MiB", "Provisioned MB"},
		FieldInUse:       {"In Use MiB", "In Use MB"},
		FieldHost:        {"Host"},
		FieldCluster:     {"Cluster"},
		FieldDatacenter:  {"Datacenter"},
		FieldOS:          {"OS according to the configuration file", "OS according to the VMware Tools", "OS"},
		FieldHWVersion:   {"HW version", "HW Version", "Hardware version"},
		FieldTemplate:    {"Template"},
	},
	TableVCPU: {
		FieldSource:      sourceAliases,
		FieldDatacenter:  {"Datacenter"},
		FieldVM:          {"VM", "VM Name"},
		FieldCPUs:        {"CPUs", "Num CPU"},
		FieldOverallMHz:  {"Overall", "Overall MHz"},
		FieldMaxMHz:      {"Max", "Max MHz"},
		FieldLimit:       {"Limit"},
		FieldReservation: {"Reservation"},
		FieldHost:        {"Host"},
	},
	TableVMemory: {
		FieldSource:      sourceAliases,
		FieldDatacenter:  {"Datacenter"},
		FieldVM:          {"VM", "VM Name"},
		FieldBallooned:   {"Ballooned MB", "Ballooned MiB", "Ballooned"},
		FieldSwapped:     {"Swapped MB", "Swapped MiB", "Swapped"},
		FieldLimit:       {"Limit"},
		FieldReservation: {"Reservation"},
	},
	TableVDisk: {
		FieldSource:     sourceAliases,
		FieldDatacenter: {"Datacenter"},
		FieldVM:         {"VM", "VM Name"},
		FieldCapacity:   {"Capacity MiB", "Capacity MB"},
		FieldThin:       {"Thin"},
		FieldDiskLabel:  {"Disk", "Label"},
	},
	TableVPartition: {
		FieldSource:     sourceAliases,
		FieldDatacenter: {"Datacenter"},
		FieldVM:         {"VM", "VM Name"},
		FieldConsumed:   {"Consumed MB", "Consumed MiB"},
		FieldCapacity:   {"Capacity MB", "Capacity MiB"},
	},
	TableVNetwork: {
		FieldSource:     sourceAliases,
		FieldDatacenter: {"Datacenter"},
		FieldVM:         {"VM", "VM Name"},
		FieldAdapter:    {"Adapter", "Adapter Type"},
		FieldNetwork:    {"Network"},
	},
	TableVSnapshot: {
		FieldSource:     sourceAliases,
		FieldDatacenter: {"Datacenter"},
		FieldVM:         {"VM", "VM Name"},
		FieldName:       {"Name", "Snapshot"},
		FieldSize:       {"Size MiB (total)", "Size MiB (vmsn)", "Size MB"},
		FieldDate:       {"Date / time", "Date", "Date/time"},
	},
	TableVTools: {
		FieldSource:      sourceAliases,
		FieldDatacenter:  {"Datacenter"},
		FieldVM:          {"VM", "VM Name"},
		FieldToolsStatus: {"Status", "Tools status", "Tools Status"},
	},
	TableVCD: {
		FieldSource:     sourceAliases,
		FieldDatacenter: {"Datacenter"},
		FieldVM:         {"VM", "VM Name"},
		FieldConnected:  {"Connected"},
		FieldISOPath:    {"ISO Path", "Device Type"},
	},
	TableVFloppy: {
		FieldSource:     sourceAliases,
		FieldDatacenter: {"Datacenter"},
		FieldVM:         {"VM", "VM Name"},
		FieldConnected:  {"Connected"},
	},
	TableVHost: {
		FieldSource:         sourceAliases,
		FieldHost:           {"Host", "Name"},
		FieldDatacenter:     {"Datacenter"},
		FieldCluster:        {"Cluster"},
		FieldSockets:        {"# CPU", "CPU sockets"},
		FieldCoresPerSocket: {"Cores per CPU"},
		FieldCores:          {"# Cores", "Cores"},
		FieldMemory:         {"# Memory", "Memory MiB", "Memory MB"},
		FieldCPUUsage:       {"CPU usage %", "CPU Usage %"},
		FieldMemoryUsage:    {"Memory usage %", "Memory Usage %"},
		FieldVCPUs:          {"# vCPUs", "vCPUs"},
		FieldVRAM:           {"vRAM", "vRAM MiB"},
		FieldCPUModel:       {"CPU Model"},
		FieldESXVersion:     {"ESX Version", "ESXi Version"},
		FieldSpeed:          {"Speed", "Speed MHz"},
		FieldBIOSDate:       {"BIOS Date"},
		FieldVendor:         {"Vendor"},
		FieldModel:          {"Model"},
	},
	TableVDatastore: {
		FieldSource:      sourceAliases,
		FieldName:        {"Name", "Datastore"},
		FieldCapacity:    {"Capacity MiB", "Capacity MB"},
		FieldFree:        {"Free MiB", "Free MB"},
		FieldProvisioned: {"Provisioned MiB", "Provisioned MB"},
		FieldClusterName: {"Cluster name", "Cluster"},
		FieldType:        {"Type"},
	},
	TableVHealth: {
		FieldSource:      sourceAliases,
		FieldName:        {"Name", "Entity"},
		FieldMessage:     {"Message"},
		FieldMessageType: {"Message type", "Message Type"},
	},
}
