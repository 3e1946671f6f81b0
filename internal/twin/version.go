package twin

// Version is the twin engine version, stamped into journal records and
// startup logs.
const Version = "0.1.0"
