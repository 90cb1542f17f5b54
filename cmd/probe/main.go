// Command probe checks which of a set of candidate IPs fronts the fleet API.
// An endpoint that answers 401 to an unauthenticated roster request is the
// API: it got far enough to ask for credentials.
package main

import (
	"crypto/tls"
	"flag"
	"fmt"
	"net/http"
	"strings"
	"time"
)

var defaultCandidates = []string{
	"213.180.204.225",
	"87.250.250.119",
	"93.158.134.119",
	"84.201.181.187",
	"87.250.251.46",
	"77.88.21.107",
	"5.255.255.5",
}

func main() {
	host := flag.String("host", "fleet-api.taxi.yandex.net", "Host header to present")
	path := flag.String("path", "/v1/parks/driver-profiles/list", "path to probe")
	ips := flag.String("ips", "", "comma-separated candidate IPs (default: built-in list)")
	timeout := flag.Duration("timeout", 5*time.Second, "per-request timeout")
	flag.Parse()

	candidates := defaultCandidates
	if *ips != "" {
		candidates = strings.Split(*ips, ",")
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	client := &http.Client{Timeout: *timeout, Transport: transport}

	for _, ip := range candidates {
		ip = strings.TrimSpace(ip)
		req, err := http.NewRequest(http.MethodPost, "https://"+ip+*path, nil)
		if err != nil {
			fmt.Printf("%-16s bad request: %v\n", ip, err)
			continue
		}
		req.Host = *host
		req.Header.Set("Content-Type", "application/json")

		res, err := client.Do(req)
		if err != nil {
			fmt.Printf("%-16s unreachable: %v\n", ip, err)
			continue
		}
		res.Body.Close()

		switch res.StatusCode {
		case http.StatusUnauthorized:
			fmt.Printf("%-16s FOUND: asks for credentials (%d)\n", ip, res.StatusCode)
		case http.StatusNotFound:
			fmt.Printf("%-16s not the API (404)\n", ip)
		default:
			fmt.Printf("%-16s answered %d\n", ip, res.StatusCode)
		}
	}
}
