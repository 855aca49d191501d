package server

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/Danyil-SY/assistant-bot/internal/bot"
	"github.com/Danyil-SY/assistant-bot/internal/domain"
	"github.com/Danyil-SY/assistant-bot/internal/storage"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/rs/zerolog"
)

var _ = Describe("Server", func() {
	var (
		store *storage.MemoryStore
		srv   *Server
	)

	do := func(method, path, body string, headers ...string) (*http.Response, []byte) {
		GinkgoHelper()
		var reader io.Reader
		if body != "" {
			reader = strings.NewReader(body)
		}
		req, err := http.NewRequest(method, path, reader)
		Expect(err).NotTo(HaveOccurred())
		if body != "" {
			req.Header.Set("Content-Type", "application/json")
		}
		for i := 0; i+1 < len(headers); i += 2 {
			req.Header.Set(headers[i], headers[i+1])
		}
		resp, err := srv.App().Test(req, -1)
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		raw, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		return resp, raw
	}

	command := func(input string) CommandResponse {
		GinkgoHelper()
		payload, err := json.Marshal(CommandRequest{Input: input})
		Expect(err).NotTo(HaveOccurred())
		resp, raw := do(http.MethodPost, "/api/v1/commands", string(payload))
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		var out CommandResponse
		Expect(json.Unmarshal(raw, &out)).To(Succeed())
		return out
	}

	BeforeEach(func() {
		store = storage.NewMemoryStore()
		b := bot.New(domain.NewAddressBook(), store, 7, zerolog.Nop())
		srv = New(b, 8000, 7, zerolog.Nop())
		srv.now = func() time.Time { return time.Date(2024, time.June, 3, 12, 0, 0, 0, time.UTC) }
	})

	Describe("GET /healthz", func() {
		It("reports the declared port", func() {
			resp, raw := do(http.MethodGet, "/healthz", "")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(raw).To(MatchJSON(`{"status":"ok","port":8000}`))
		})

		It("assigns a request id", func() {
			resp, _ := do(http.MethodGet, "/healthz", "")
			Expect(resp.Header.Get("X-Request-ID")).To(HaveLen(36))
		})

		It("keeps a request id sent by the client", func() {
			resp, _ := do(http.MethodGet, "/healthz", "", "X-Request-ID", "trace-42")
			Expect(resp.Header.Get("X-Request-ID")).To(Equal("trace-42"))
		})
	})

	Describe("commands", func() {
		It("lists the commands", func() {
			resp, raw := do(http.MethodGet, "/api/v1/commands", "")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			var out map[string]string
			Expect(json.Unmarshal(raw, &out)).To(Succeed())
			Expect(out["commands"]).To(HavePrefix("Commands:"))
			Expect(out["commands"]).To(ContainSubstring("add-birthday [name] [date of birth]"))
		})

		It("executes commands and persists changes", func() {
			Expect(command("hello")).To(Equal(CommandResponse{Command: "hello", Message: "How can I help you?"}))
			Expect(command("add John 1234567890").Message).To(Equal("Contact added."))
			Expect(command("phone John").Message).To(Equal("1234567890"))
			Expect(command("add John 12").Message).To(Equal("Error: Invalid input format. Please provide the correct argument(s)."))
			Expect(command("exit")).To(Equal(CommandResponse{Command: "exit", Message: "Goodbye!", Exit: true}))
			Expect(store.Saves()).To(Equal(1))
		})

		It("rejects a malformed body", func() {
			resp, raw := do(http.MethodPost, "/api/v1/commands", `{"input":`)
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			Expect(raw).To(MatchJSON(`{"error":"Invalid request body"}`))
		})

		It("rejects empty input", func() {
			resp, raw := do(http.MethodPost, "/api/v1/commands", `{"input":"   "}`)
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			Expect(raw).To(MatchJSON(`{"error":"Input is required"}`))
		})
	})

	Describe("contacts", func() {
		BeforeEach(func() {
			command("add John 1234567890")
			command("add John 5555555555")
			command("add-birthday John 05.06.1990")
			command("add Jane 0987654321")
		})

		It("lists every contact in insertion order", func() {
			resp, raw := do(http.MethodGet, "/api/v1/contacts", "")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(raw).To(MatchJSON(`[
				{"name":"John","phones":["1234567890","5555555555"],"birthday":"05.06.1990"},
				{"name":"Jane","phones":["0987654321"]}
			]`))
		})

		It("returns one contact", func() {
			resp, raw := do(http.MethodGet, "/api/v1/contacts/Jane", "")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(raw).To(MatchJSON(`{"name":"Jane","phones":["0987654321"]}`))
		})

		It("returns 404 for an unknown contact", func() {
			resp, raw := do(http.MethodGet, "/api/v1/contacts/Nobody", "")
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
			Expect(raw).To(MatchJSON(`{"error":"Contact not found."}`))
		})

		It("returns an empty list for an empty book", func() {
			command("delete John")
			command("delete Jane")
			_, raw := do(http.MethodGet, "/api/v1/contacts", "")
			Expect(raw).To(MatchJSON(`[]`))
		})
	})

	Describe("GET /api/v1/birthdays", func() {
		BeforeEach(func() {
			command("add John 1234567890")
			command("add-birthday John 05.06.1990")
			command("add Jane 0987654321")
			command("add-birthday Jane 20.06.1985")
		})

		It("uses the configured window", func() {
			_, raw := do(http.MethodGet, "/api/v1/birthdays", "")
			Expect(raw).To(MatchJSON(`[{"name":"John","congratulation_date":"2024.06.05"}]`))
		})

		It("accepts a custom window", func() {
			_, raw := do(http.MethodGet, "/api/v1/birthdays?days=30", "")
			Expect(raw).To(MatchJSON(`[
				{"name":"John","congratulation_date":"2024.06.05"},
				{"name":"Jane","congratulation_date":"2024.06.20"}
			]`))
		})

		It("rejects a bad window", func() {
			for _, q := range []string{"soon", "-1"} {
				resp, _ := do(http.MethodGet, "/api/v1/birthdays?days="+q, "")
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			}
		})
	})

	Describe("Serve", func() {
		It("serves on the given listener until the context ends", func() {
			ln, err := net.Listen("tcp", "127.0.0.1:0")
			Expect(err).NotTo(HaveOccurred())
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() { done <- srv.Serve(ctx, ln) }()

			url := "http://" + ln.Addr().String() + "/healthz"
			Eventually(func(g Gomega) {
				resp, err := http.Get(url)
				g.Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				g.Expect(resp.StatusCode).To(Equal(http.StatusOK))
			}, 2*time.Second, 20*time.Millisecond).Should(Succeed())

			cancel()
			Eventually(done, 6*time.Second).Should(Receive(BeNil()))
		})
	})
})
