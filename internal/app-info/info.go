package app_info

// NAME the name of this application
const NAME = "camscan"

// VERSION the current version of this application
var VERSION = "v0.1.0"
