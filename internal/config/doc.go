// Package config loads dmxbench.json, the optional per-project defaults
// file. Flags always win over the file; the file wins over built-in
// defaults.
//
// # Configuration File Structure
//
//	{
//	  "modbus_target": "192.168.0.249:502",
//	  "http_target": "192.168.0.132:8080",
//	  "ws_path": "/ws",
//	  "light": "rack1/level1",
//	  "clients": 10,
//	  "requests": 100,
//	  "timeout_s": 5,
//	  "reply_timeout_s": 2
//	}
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Target:", cfg.ModbusTarget)
package config
