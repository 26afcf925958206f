package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// getBaseURL returns the base URL for API calls.
// Uses INNSIGHT_BASE_URL env var if set (for container tests),
// otherwise defaults to localhost:8080.
func getBaseURL() string {
	if url := os.Getenv("INNSIGHT_BASE_URL"); url != "" {
		return url
	}
	return "http://localhost:8080"
}

// httpClient creates an HTTP client with sensible defaults.
func httpClient() *http.Client {
	return &http.Client{
		Timeout: 10 * time.Second,
	}
}

// doRequest performs an HTTP request and returns the response.
func doRequest(method, path string, body interface{}) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(data)
	}

	url := getBaseURL() + path
	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return httpClient().Do(req)
}

// parseResponse parses JSON response into target.
func parseResponse(resp *http.Response, target interface{}) error {
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(target)
}

// idOf extracts the numeric id of a decoded entity as a path-ready string.
func idOf(data map[string]interface{}) string {
	return strconv.FormatInt(int64(data["id"].(float64)), 10)
}

// cleanupTestData removes test hotels; deleting a hotel removes its reviews.
func cleanupTestData(hotelIDs []string) {
	for _, id := range hotelIDs {
		_, _ = doRequest("DELETE", "/api/v1/hotels/"+id, nil)
	}
}

var _ = Describe("HTTP Integration Tests", Ordered, func() {
	var (
		hotelID         string
		reviewID        string
		createdHotelIDs []string
	)

	BeforeAll(func() {
		// Check if the server is reachable
		resp, err := doRequest("GET", "/health", nil)
		if err != nil {
			Skip(fmt.Sprintf("Server not reachable at %s: %v", getBaseURL(), err))
		}
		resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
	})

	AfterAll(func() {
		cleanupTestData(createdHotelIDs)
	})

	Describe("Health Check", func() {
		It("should return healthy status", func() {
			resp, err := doRequest("GET", "/health", nil)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusOK))
		})
	})

	Describe("Hotels API", func() {
		It("should create a hotel", func() {
			payload := map[string]interface{}{
				"name":        "HTTP Test Hotel",
				"city":        "Porto",
				"country":     "Portugal",
				"star_rating": 4.0,
			}

			resp, err := doRequest("POST", "/api/v1/hotels", payload)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusCreated))

			var result map[string]interface{}
			Expect(parseResponse(resp, &result)).To(Succeed())

			data, ok := result["data"].(map[string]interface{})
			Expect(ok).To(BeTrue())
			hotelID = idOf(data)
			createdHotelIDs = append(createdHotelIDs, hotelID)

			Expect(data["name"]).To(Equal("HTTP Test Hotel"))
			Expect(data["city"]).To(Equal("Porto"))
		})

		It("should get the created hotel", func() {
			resp, err := doRequest("GET", "/api/v1/hotels/"+hotelID, nil)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var result map[string]interface{}
			Expect(parseResponse(resp, &result)).To(Succeed())

			data := result["data"].(map[string]interface{})
			Expect(data["name"]).To(Equal("HTTP Test Hotel"))
		})

		It("should list hotels", func() {
			resp, err := doRequest("GET", "/api/v1/hotels?city=Porto", nil)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var result map[string]interface{}
			Expect(parseResponse(resp, &result)).To(Succeed())

			data, ok := result["data"].(map[string]interface{})
			Expect(ok).To(BeTrue())
			items, ok := data["items"].([]interface{})
			Expect(ok).To(BeTrue())
			Expect(len(items)).To(BeNumerically(">=", 1))
		})

		It("should update the hotel", func() {
			payload := map[string]interface{}{
				"description": "Updated by the HTTP suite",
			}

			resp, err := doRequest("PUT", "/api/v1/hotels/"+hotelID, payload)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var result map[string]interface{}
			Expect(parseResponse(resp, &result)).To(Succeed())

			data := result["data"].(map[string]interface{})
			Expect(data["description"]).To(Equal("Updated by the HTTP suite"))
			Expect(data["name"]).To(Equal("HTTP Test Hotel"))
		})
	})

	Describe("Review Submission and Analysis", func() {
		It("should accept a review and analyze it asynchronously", func() {
			payload := map[string]interface{}{
				"hotel_id":  mustParseInt(hotelID),
				"user_name": "http-suite",
				"rating":    5,
				"content":   "Amazing stay, wonderful staff, perfect location",
			}

			resp, err := doRequest("POST", "/api/v1/reviews", payload)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusCreated))

			var result map[string]interface{}
			Expect(parseResponse(resp, &result)).To(Succeed())

			data := result["data"].(map[string]interface{})
			reviewID = idOf(data)
			Expect(data["status"]).To(Equal("pending"))
			Expect(data["sentiment_score"]).To(BeNil())

			// Wait for the pipeline to process the review. The first Kafka
			// delivery can lag behind a consumer group rebalance.
			var final map[string]interface{}
			Eventually(func() string {
				reviewResp, err := doRequest("GET", "/api/v1/reviews/"+reviewID, nil)
				if err != nil {
					return ""
				}
				defer reviewResp.Body.Close()

				if reviewResp.StatusCode != http.StatusOK {
					return ""
				}

				var got map[string]interface{}
				if parseResponse(reviewResp, &got) != nil {
					return ""
				}

				final = got["data"].(map[string]interface{})
				if final["status"] == nil {
					return ""
				}
				return final["status"].(string)
			}, 15*time.Second, 250*time.Millisecond).Should(Equal("completed"))

			Expect(final["sentiment_label"]).To(Equal("positive"))
			Expect(final["sentiment_score"]).To(BeNumerically("~", 1.0, 0.001))
		})

		It("should list the hotel's reviews with a status filter", func() {
			resp, err := doRequest("GET", "/api/v1/hotels/"+hotelID+"/reviews?status=completed", nil)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var result map[string]interface{}
			Expect(parseResponse(resp, &result)).To(Succeed())

			data := result["data"].(map[string]interface{})
			items, ok := data["items"].([]interface{})
			Expect(ok).To(BeTrue())
			Expect(len(items)).To(BeNumerically(">=", 1))
		})

		It("should reflect the review in the hotel stats", func() {
			resp, err := doRequest("GET", "/api/v1/hotels/"+hotelID+"/stats", nil)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var result map[string]interface{}
			Expect(parseResponse(resp, &result)).To(Succeed())

			data := result["data"].(map[string]interface{})
			Expect(data["review_count"]).To(BeNumerically(">=", 1))

			breakdown, ok := data["sentiment_breakdown"].(map[string]interface{})
			Expect(ok).To(BeTrue())
			Expect(breakdown["positive"]).To(BeNumerically(">=", 1))
		})
	})

	Describe("Request Validation", func() {
		It("should reject a review with no content", func() {
			payload := map[string]interface{}{
				"hotel_id":  mustParseInt(hotelID),
				"user_name": "http-suite",
				"rating":    5,
			}

			resp, err := doRequest("POST", "/api/v1/reviews", payload)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))

			var result map[string]interface{}
			Expect(parseResponse(resp, &result)).To(Succeed())
			Expect(result["success"]).To(BeFalse())

			errObj, ok := result["error"].(map[string]interface{})
			Expect(ok).To(BeTrue())
			Expect(errObj["code"]).To(Equal("VALIDATION_FAILED"))
		})

		It("should return 404 for a review of an unknown hotel", func() {
			payload := map[string]interface{}{
				"hotel_id":  99999999,
				"user_name": "http-suite",
				"rating":    3,
				"content":   "This hotel does not exist anywhere",
			}

			resp, err := doRequest("POST", "/api/v1/reviews", payload)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})
	})
})

func mustParseInt(s string) int64 {
	v, err := strconv.ParseInt(s, 10, 64)
	Expect(err).NotTo(HaveOccurred())
	return v
}
