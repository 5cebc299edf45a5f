package e2e

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/hubward/hubward/internal/progress"
)

// provisionBody builds a request for the suite's hub with the given
// principal and credential.
func provisionBody(principal, credential string) string {
	return fmt.Sprintf(`{"host":%q,"port":%d,"principal":%q,"credential":%q}`,
		hub.Host(), hub.Port(), principal, credential)
}

func postProvision(body string) *http.Response {
	resp, err := http.Post(daemon.URL+"/api/provision", "application/json", strings.NewReader(body))
	Expect(err).NotTo(HaveOccurred())
	return resp
}

// readFrames drains the event stream and decodes every data frame.
func readFrames(resp *http.Response) []progress.Event {
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	Expect(err).NotTo(HaveOccurred())

	var events []progress.Event
	for _, block := range strings.Split(string(data), "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		payload, ok := strings.CutPrefix(block, "data: ")
		Expect(ok).To(BeTrue(), "unexpected frame: %q", block)

		var event progress.Event
		Expect(json.Unmarshal([]byte(payload), &event)).To(Succeed())
		events = append(events, event)
	}
	return events
}

func frameTypes(events []progress.Event) []progress.EventType {
	types := make([]progress.EventType, len(events))
	for i, e := range events {
		types[i] = e.Type
	}
	return types
}

// runProvision drives one full successful run through the daemon.
func runProvision() []progress.Event {
	resp := postProvision(provisionBody("root", hubPassword))
	Expect(resp.StatusCode).To(Equal(http.StatusOK))
	return readFrames(resp)
}

var _ = Describe("Provisioning over HTTP", func() {
	It("streams a full run ending in a done frame", func() {
		resp := postProvision(provisionBody("root", hubPassword))
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(resp.Header.Get("Content-Type")).To(Equal("text/event-stream"))

		frames := readFrames(resp)
		Expect(frames).NotTo(BeEmpty())

		By("opening with the connection event")
		Expect(frames[0].Type).To(Equal(progress.EventConnected))
		Expect(frames[0].Message).To(ContainSubstring("root@"))

		By("announcing every pipeline stage")
		var steps []int
		for _, f := range frames {
			if f.Type == progress.EventStep {
				steps = append(steps, f.Step)
			}
		}
		Expect(steps).To(Equal([]int{1, 2, 3, 4, 5, 6, 7}))

		By("closing with success and the end-of-stream marker")
		Expect(frames[len(frames)-2].Type).To(Equal(progress.EventSuccess))
		Expect(frames[len(frames)-2].Payload).To(HaveKeyWithValue("path", "/opt/hub"))
		Expect(frames[len(frames)-1].Type).To(Equal(progress.EventDone))

		By("having run the pipeline against the hub")
		Expect(hub.SawCommand("mkdir -p '/opt/hub'")).To(BeTrue())
		Expect(hub.SawCommand("codeload.github.com/acme/hub/tar.gz")).To(BeTrue())
		Expect(hub.SawCommand("bash ./setup.sh")).To(BeTrue())
	})

	It("rejects an incomplete request before touching the hub", func() {
		resp := postProvision(fmt.Sprintf(`{"host":%q,"principal":"root"}`, hub.Host()))
		defer resp.Body.Close()

		Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		Expect(resp.Header.Get("Content-Type")).To(ContainSubstring("application/json"))

		var body map[string]string
		Expect(json.NewDecoder(resp.Body).Decode(&body)).To(Succeed())
		Expect(body["error"]).To(ContainSubstring("credential is required"))
	})

	It("ends a failed run with an error frame and no done marker", func() {
		// A distinct principal keeps this run off the cached session
		// from earlier specs.
		resp := postProvision(provisionBody("stranger", "wrong-password"))
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		frames := readFrames(resp)
		Expect(frames).NotTo(BeEmpty())

		last := frames[len(frames)-1]
		Expect(last.Type).To(Equal(progress.EventError))
		Expect(last.Message).To(ContainSubstring("Failed to connect"))
		Expect(frameTypes(frames)).NotTo(ContainElement(progress.EventDone))
		Expect(frameTypes(frames)).NotTo(ContainElement(progress.EventConnected))
	})
})

var _ = Describe("Session administration", func() {
	It("tracks and disconnects hub sessions", func() {
		runProvision()

		key := fmt.Sprintf("root@%s:%d", hub.Host(), hub.Port())

		By("listing the session the run left behind")
		resp, err := http.Get(daemon.URL + "/api/sessions")
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		var listing struct {
			Sessions []string `json:"sessions"`
			Count    int      `json:"count"`
		}
		Expect(json.NewDecoder(resp.Body).Decode(&listing)).To(Succeed())
		Expect(listing.Sessions).To(ContainElement(key))
		Expect(listing.Count).To(BeNumerically(">=", 1))

		By("disconnecting it")
		req, err := http.NewRequest(http.MethodDelete, daemon.URL+"/api/sessions/"+key, nil)
		Expect(err).NotTo(HaveOccurred())
		delResp, err := http.DefaultClient.Do(req)
		Expect(err).NotTo(HaveOccurred())
		defer delResp.Body.Close()
		Expect(delResp.StatusCode).To(Equal(http.StatusOK))

		var deleted map[string]any
		Expect(json.NewDecoder(delResp.Body).Decode(&deleted)).To(Succeed())
		Expect(deleted).To(HaveKeyWithValue("disconnected", key))

		By("confirming the registry is empty")
		again, err := http.Get(daemon.URL + "/api/sessions")
		Expect(err).NotTo(HaveOccurred())
		defer again.Body.Close()
		Expect(json.NewDecoder(again.Body).Decode(&listing)).To(Succeed())
		Expect(listing.Sessions).NotTo(ContainElement(key))
	})
})

var _ = Describe("Daemon surfaces", func() {
	It("serves the one-click console", func() {
		resp, err := http.Get(daemon.URL + "/")
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		page, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(page)).To(ContainSubstring("hubward"))
		Expect(string(page)).To(ContainSubstring("/api/provision"))
	})

	It("reports pipeline metrics", func() {
		runProvision()

		resp, err := http.Get(daemon.URL + "/metrics")
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		body, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(body)).To(ContainSubstring("hubward_provision_runs_total"))
		Expect(string(body)).To(ContainSubstring("hubward_session_active"))
	})

	It("answers health checks", func() {
		resp, err := http.Get(daemon.URL + "/healthz")
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		var health map[string]string
		Expect(json.NewDecoder(resp.Body).Decode(&health)).To(Succeed())
		Expect(health).To(HaveKeyWithValue("status", "ok"))
	})
})
