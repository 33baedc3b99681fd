package incident

// KernelVersion is stamped on every incident.
const KernelVersion = "0.1.0"
