// Package msgs provides the wire protocol between the range finder
// driver and its remote consumers, and all message schemas.
//
// Producer: driver (events, command replies)
// Consumer: monitors, shells, ground stations (commands)
package msgs
