// Package config loads bridge deployments from roster files.
//
// Two formats are supported: the line based interface.cfg format
//
//	num_stations = "1"
//	comm_delay = "100"
//	simulink = "192.168.0.5"
//	station0.ip = "192.168.0.10"
//	station0.add(digital_in) = "10001"
//	station0.add(digital_out) = "10002"
//
// comm_delay is in milliseconds and sets the cadence of the PLC exchange and the simulation
// output; without it the cadence stays at 100 ms.
//
// The YAML format is selected by the .yaml or .yml file extension:
//
//	simulation:
//	  host: 192.168.0.5
//	comm_delay: 100ms
//	plc:
//	  port: 6668
//	stations:
//	  - address: 192.168.0.10
//	    digital_in: [10001]
//	    digital_out: [10002]
package config
