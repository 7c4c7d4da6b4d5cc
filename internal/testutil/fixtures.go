package testutil

// Sample NextBus feed responses for client testing

// SamplePredictionsResponse has two directions, one with a single prediction
// sent as an object rather than an array
const SamplePredictionsResponse = `{
	"predictions": {
		"agencyTitle": "Toronto Transit Commission",
		"routeTag": "506",
		"routeTitle": "506-Carlton",
		"stopTag": "5278",
		"stopTitle": "College St At Spadina Ave",
		"direction": [
			{
				"title": "East - 506 Carlton towards Main Street Station",
				"prediction": [
					{"minutes": "10", "seconds": "612", "epochTime": "1704119412000", "isDeparture": "false", "dirTag": "506_0_506", "vehicle": "4418"},
					{"minutes": "3", "seconds": "188", "epochTime": "1704118988000", "isDeparture": "false", "dirTag": "506_0_506", "vehicle": "4402"}
				]
			},
			{
				"title": "East - 506 Carlton towards Broadview Station",
				"prediction": {"minutes": "17", "seconds": "1044", "epochTime": "1704119844000", "isDeparture": "false", "dirTag": "506_0_506Bus", "vehicle": "8561"}
			}
		],
		"message": {"text": "Streetcars replaced by buses east of Broadview", "priority": "Normal"}
	},
	"copyright": "All data copyright Toronto Transit Commission 2024."
}`

// SampleNoPredictionsResponse is returned when nothing is scheduled
const SampleNoPredictionsResponse = `{
	"predictions": {
		"agencyTitle": "Toronto Transit Commission",
		"routeTag": "510",
		"routeTitle": "510-Spadina",
		"stopTag": "7306",
		"stopTitle": "Queen St West At Spadina Ave",
		"dirTitleBecauseNoPredictions": "South - 510 Spadina towards Queens Quay"
	},
	"copyright": "All data copyright Toronto Transit Commission 2024."
}`

// SampleErrorResponse is the feed's error envelope for an unknown stop
const SampleErrorResponse = `{
	"Error": {
		"content": "Could not get stop \"99999\" for route \"506\" for agency tag \"ttc\"",
		"shouldRetry": "false"
	},
	"copyright": "All data copyright Toronto Transit Commission 2024."
}`

// SampleRetryErrorResponse is an error the feed asks clients to retry
const SampleRetryErrorResponse = `{
	"Error": {
		"content": "Agency server cannot accept client while status is: agency name = ttc,status = UNINITIALIZED",
		"shouldRetry": "true"
	}
}`

// SampleCatalogYAML is a companion fixture with two stops
const SampleCatalogYAML = `sections:
  - stop_tag: "5278"
    stop_title: College St At Spadina Ave
    stops:
      - route_tag: "506"
        route_title: 506-Carlton
        direction_tag: 506_0_506
        direction_title: East - 506 Carlton towards Main Street Station
        prediction: [3, 10]
  - stop_tag: "7306"
    stop_title: Queen St West At Spadina Ave
    stops:
      - route_tag: "501"
        route_title: 501-Queen
        direction_tag: 501_1_501
        direction_title: West - 501 Queen towards Long Branch
        prediction: [1]
      - route_tag: "510"
        route_title: 510-Spadina
        direction_tag: 510_0_510
        direction_title: South - 510 Spadina towards Queens Quay
`
