package wellknown

import (
	"bytes"
	"encoding/csv"
	"io"
	"log"
	"strconv"
	"strings"

	_ "embed"
)

// nsx_services.csv lists services NSX ships as built-in objects.
//
//go:embed nsx_services.csv
var nsxServicesData string

type Protocol string

const (
	TCP  Protocol = "tcp"
	UDP  Protocol = "udp"
	ICMP Protocol = "icmp"
)

type ServiceEntry struct {
	Protocol Protocol
	Port     int
}

var serviceRegistry map[string][]ServiceEntry

func init() {
	serviceRegistry = make(map[string][]ServiceEntry)
	reader := csv.NewReader(bytes.NewBufferString(nsxServicesData))
	reader.TrimLeadingSpace = true
	// Skip header
	if _, err := reader.Read(); err != nil {
		log.Fatalf("Failed to read header from embedded nsx_services.csv: %v", err)
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatalf("Failed to parse embedded nsx_services.csv: %v", err)
		}
		if len(record) < 3 {
			continue
		}

		port, err := strconv.Atoi(record[2])
		if err != nil {
			continue
		}
		name := strings.ToUpper(strings.TrimSpace(record[0]))
		serviceRegistry[name] = append(serviceRegistry[name], ServiceEntry{
			Protocol: Protocol(strings.ToLower(record[1])),
			Port:     port,
		})
	}
}

// GetService returns the protocol/port entries of an NSX built-in service name.
// Lookup ignores case.
func GetService(name string) ([]ServiceEntry, bool) {
	entry, ok := serviceRegistry[strings.ToUpper(strings.TrimSpace(name))]
	return entry, ok
}
